package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/seometrics/internal/capability"
	"github.com/user/seometrics/internal/registry"
)

const (
	defaultMaxTurns          = 5
	defaultWallClockBudget   = 90 * time.Second
	defaultModelCallTimeout  = 30 * time.Second
	defaultHistoryCharBudget = 6000 * approxCharsPerToken

	defaultVariantID = "default"
	contentVariantID = "content-quality"

	budgetExhaustedFallback = "I ran out of room to finish this request. The tool results gathered so far are attached; ask me to continue if you need more."
)

// ActivityRecorder observes completed capability invocations. Implementations
// must be fire-and-forget: never block the loop, never surface an error.
type ActivityRecorder interface {
	Record(userToken string, capabilityName string, args map[string]any, result Envelope, siteURL string)
}

type Options struct {
	Capabilities *capability.Registry
	Models       *registry.Registry
	Provider     Provider
	Executor     Executor
	Recorder     ActivityRecorder
	Classifier   IntentClassifier

	MaxTurns          int
	WallClockBudget   time.Duration
	ModelCallTimeout  time.Duration
	HistoryCharBudget int
}

type Orchestrator struct {
	capabilities *capability.Registry
	models       *registry.Registry
	provider     Provider
	executor     Executor
	recorder     ActivityRecorder
	classifier   IntentClassifier

	maxTurns          int
	wallClockBudget   time.Duration
	modelCallTimeout  time.Duration
	historyCharBudget int

	now func() time.Time
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Capabilities == nil || opts.Capabilities.Len() == 0 {
		return nil, fmt.Errorf("capability registry is required")
	}
	if opts.Models == nil {
		return nil, fmt.Errorf("model registry is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("model provider is required")
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("capability executor is required")
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = NewRegexClassifier()
	}
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	wallClock := opts.WallClockBudget
	if wallClock <= 0 {
		wallClock = defaultWallClockBudget
	}
	callTimeout := opts.ModelCallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultModelCallTimeout
	}
	historyBudget := opts.HistoryCharBudget
	if historyBudget <= 0 {
		historyBudget = defaultHistoryCharBudget
	}

	return &Orchestrator{
		capabilities:      opts.Capabilities,
		models:            opts.Models,
		provider:          opts.Provider,
		executor:          opts.Executor,
		recorder:          opts.Recorder,
		classifier:        classifier,
		maxTurns:          maxTurns,
		wallClockBudget:   wallClock,
		modelCallTimeout:  callTimeout,
		historyCharBudget: historyBudget,
		now:               time.Now,
	}, nil
}

// ChatRequest is one orchestration run: the user's message plus the caller's
// identity, authorized site and optional catalogue restriction.
type ChatRequest struct {
	SystemPrompt   string
	History        []Message
	UserMessage    string
	UserToken      string
	SiteURL        string
	AvailableTools []string
}

// ChatResult is the best-effort outcome: the final (or partial) answer, every
// invocation's envelope keyed by invocation id, and how many tool-dispatching
// turns ran. The terminal answer turn is not counted as a step.
type ChatResult struct {
	Content     string
	ToolResults map[string]Envelope
	Steps       int
}

// Run drives the conversation until the model answers without tool calls or a
// budget runs out. Budget exhaustion is not an error; only provider transport
// failure (or a cancelled request context) aborts the run.
func (o *Orchestrator) Run(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if o == nil {
		return nil, fmt.Errorf("orchestrator unavailable")
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		return nil, fmt.Errorf("message is required")
	}
	if strings.TrimSpace(req.UserToken) == "" {
		return nil, fmt.Errorf("user token is required")
	}

	caps := o.capabilities.Subset(req.AvailableTools)
	if caps.Len() == 0 {
		return nil, fmt.Errorf("no capabilities available for this request")
	}
	system := strings.TrimSpace(req.SystemPrompt)
	if system == "" {
		system = BuildSystemPrompt(req.SiteURL, caps.List())
	}

	state := newLoopState(o.now(), req.History, req.UserMessage)
	for {
		if state.step >= o.maxTurns || state.elapsed(o.now()) >= o.wallClockBudget {
			return o.result(state, true), nil
		}
		next, done, err := o.runTurn(ctx, system, caps, req, state)
		if err != nil {
			return nil, err
		}
		state = next
		if done {
			return o.result(state, false), nil
		}
	}
}

func (o *Orchestrator) result(state loopState, exhausted bool) *ChatResult {
	content := strings.TrimSpace(strings.Join(state.finalTexts, "\n"))
	if content == "" && exhausted {
		content = budgetExhaustedFallback
	}
	return &ChatResult{
		Content:     content,
		ToolResults: state.results,
		Steps:       state.step,
	}
}

// runTurn executes one full turn: route, call the model, then settle every
// requested invocation before handing the next state back.
func (o *Orchestrator) runTurn(ctx context.Context, system string, caps *capability.Registry, req ChatRequest, state loopState) (loopState, bool, error) {
	variant, err := o.selectVariant(req.UserMessage)
	if err != nil {
		return state, false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, o.modelCallTimeout)
	completion, err := o.provider.Complete(callCtx, CompletionRequest{
		System:   system,
		Messages: trimHistory(state.messages, o.historyCharBudget),
		Tools:    caps.Schemas(),
		Variant:  variant,
	})
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return state, false, fmt.Errorf("model call timed out after %s: %w", o.modelCallTimeout, err)
		}
		return state, false, fmt.Errorf("model call failed: %w", err)
	}

	state = state.appendFinalText(strings.TrimSpace(completion.Content))
	assistant := Message{Role: RoleAssistant, Content: completion.Content, ToolCalls: completion.ToolCalls}
	if len(completion.ToolCalls) == 0 {
		// A plain answer ends the run without consuming a step; only turns
		// that dispatch invocations count against MaxTurns.
		return state.appendMessages(assistant), true, nil
	}

	outcomes := o.dispatchInvocations(ctx, caps, req, completion.ToolCalls)

	toolMsgs := make([]Message, 0, len(outcomes))
	next := state.appendMessages(assistant)
	for _, outcome := range outcomes {
		toolMsgs = append(toolMsgs, toolMessage(outcome.id, outcome.envelope.json()))
		next = next.withResult(outcome.id, outcome.envelope)
	}
	return next.appendMessages(toolMsgs...).nextStep(), false, nil
}

func (o *Orchestrator) selectVariant(userMessage string) (*registry.VariantConfig, error) {
	variantID := defaultVariantID
	if o.classifier.Predict(userMessage) == capability.CategoryContent {
		variantID = contentVariantID
	}
	variant := o.models.Get(variantID)
	if variant == nil && variantID != defaultVariantID {
		variant = o.models.Get(defaultVariantID)
	}
	if variant == nil {
		return nil, fmt.Errorf("model variant %q is not configured", variantID)
	}
	return variant, nil
}

type invocationOutcome struct {
	id       string
	envelope Envelope
}

// dispatchInvocations runs every invocation of the turn concurrently and
// joins them all before returning; one invocation's failure never cancels its
// siblings. Outcomes come back in the model's request order.
func (o *Orchestrator) dispatchInvocations(ctx context.Context, caps *capability.Registry, req ChatRequest, calls []ToolCall) []invocationOutcome {
	outcomes := make([]invocationOutcome, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		id := strings.TrimSpace(call.ID)
		if id == "" {
			id = uuid.NewString()
		}
		wg.Add(1)
		go func(i int, id string, call ToolCall) {
			defer wg.Done()
			args, envelope := o.runInvocation(ctx, caps, req, call)
			if o.recorder != nil {
				o.recorder.Record(req.UserToken, call.Name, args, envelope, req.SiteURL)
			}
			outcomes[i] = invocationOutcome{id: id, envelope: envelope}
		}(i, id, call)
	}
	wg.Wait()
	return outcomes
}

// runInvocation is the per-invocation error boundary: every failure mode ends
// up in the returned envelope, including a panicking executor.
func (o *Orchestrator) runInvocation(ctx context.Context, caps *capability.Registry, req ChatRequest, call ToolCall) (args map[string]any, envelope Envelope) {
	defer func() {
		if r := recover(); r != nil {
			envelope = failEnvelope("capability %s panicked: %v", call.Name, r)
		}
	}()

	raw, err := parseArguments(call.Arguments)
	if err != nil {
		return nil, failEnvelope("malformed tool arguments: %v", err)
	}

	validated, err := capability.Validate(caps, call.Name, raw)
	if err != nil {
		return raw, failEnvelope("%s", err.Error())
	}

	desc, _ := caps.Get(call.Name)
	if decision := checkSiteAccess(desc, validated, req.SiteURL); !decision.Allowed {
		return validated, failEnvelope("%s", decision.Reason)
	}

	return validated, o.executor.Execute(ctx, desc.Name, validated)
}
