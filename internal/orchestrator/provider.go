package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/user/seometrics/internal/registry"
)

// CompletionRequest carries one model call: system prompt, bounded
// conversation, tool catalogue and the routed variant.
type CompletionRequest struct {
	System   string
	Messages []Message
	Tools    []map[string]any
	Variant  *registry.VariantConfig
}

// Completion is the provider's answer: final text, or a batch of tool calls,
// or both.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// Provider sends a conversation to a language model. Transport errors and
// timeouts returned here are hard stops for the whole request; they are never
// folded into per-invocation envelopes.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

const defaultMaxTokens = 1024

// HTTPProvider speaks the Anthropic and OpenAI chat APIs, selected by the
// routed variant.
type HTTPProvider struct {
	HTTPClient *http.Client
	// LookupEnv resolves the variant's api_key_env; defaults to os.Getenv.
	LookupEnv func(key string) string
}

func NewHTTPProvider(client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPProvider{HTTPClient: client}
}

func (p *HTTPProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if p == nil {
		return nil, fmt.Errorf("provider unavailable")
	}
	if req.Variant == nil {
		return nil, fmt.Errorf("model variant is required")
	}
	apiKey := p.apiKey(req.Variant)
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("credentials are not configured for variant %s", req.Variant.ID)
	}
	switch strings.ToLower(strings.TrimSpace(req.Variant.Provider)) {
	case "openai":
		return p.completeOpenAI(ctx, req, apiKey)
	default:
		return p.completeAnthropic(ctx, req, apiKey)
	}
}

func (p *HTTPProvider) apiKey(variant *registry.VariantConfig) string {
	env := strings.TrimSpace(variant.APIKeyEnv)
	if env == "" {
		if strings.EqualFold(variant.Provider, "openai") {
			env = "OPENAI_API_KEY"
		} else {
			env = "ANTHROPIC_API_KEY"
		}
	}
	lookup := p.LookupEnv
	if lookup == nil {
		lookup = os.Getenv
	}
	return lookup(env)
}

func (p *HTTPProvider) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	MaxTokens int                `json:"max_tokens"`
	Tools     []map[string]any   `json:"tools,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
}

func (p *HTTPProvider) completeAnthropic(ctx context.Context, req CompletionRequest, apiKey string) (*Completion, error) {
	maxTokens := req.Variant.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	wire := anthropicRequest{
		Model:     req.Variant.Model,
		System:    req.System,
		MaxTokens: maxTokens,
		Tools:     req.Tools,
		Messages:  toAnthropicMessages(req.Messages),
	}
	buf, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSpace(req.Variant.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1/messages"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client().Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("anthropic api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out anthropicResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, err
	}
	return fromAnthropicResponse(&out), nil
}

func toAnthropicMessages(messages []Message) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			blocks := make([]anthropicContentBlock, 0, 1+len(msg.ToolCalls))
			if strings.TrimSpace(msg.Content) != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				input := map[string]any{}
				_ = json.Unmarshal(call.Arguments, &input)
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Name,
					Input: input,
				})
			}
			out = append(out, anthropicMessage{Role: "assistant", Content: blocks})
		case RoleTool:
			out = append(out, anthropicMessage{
				Role: "user",
				Content: []anthropicContentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})
		default:
			out = append(out, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}
	return out
}

func fromAnthropicResponse(resp *anthropicResponse) *Completion {
	texts := make([]string, 0, 1)
	calls := make([]ToolCall, 0)
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if strings.TrimSpace(block.Text) != "" {
				texts = append(texts, strings.TrimSpace(block.Text))
			}
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}
	return &Completion{Content: strings.Join(texts, "\n"), ToolCalls: calls}
}

type openAIRequest struct {
	Model      string          `json:"model"`
	Messages   []openAIMessage `json:"messages"`
	Tools      []openAITool    `json:"tools,omitempty"`
	ToolChoice string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

func (p *HTTPProvider) completeOpenAI(ctx context.Context, req CompletionRequest, apiKey string) (*Completion, error) {
	wire := openAIRequest{
		Model:      req.Variant.Model,
		Messages:   toOpenAIMessages(req.System, req.Messages),
		Tools:      toOpenAITools(req.Tools),
		ToolChoice: "auto",
	}
	buf, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSpace(req.Variant.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/chat/completions"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client().Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("openai api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out openAIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return &Completion{}, nil
	}

	msg := out.Choices[0].Message
	calls := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		calls = append(calls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}
	return &Completion{Content: strings.TrimSpace(msg.Content), ToolCalls: calls}, nil
}

func toOpenAITools(input []map[string]any) []openAITool {
	tools := make([]openAITool, 0, len(input))
	for _, raw := range input {
		name, _ := raw["name"].(string)
		description, _ := raw["description"].(string)
		schema, _ := raw["input_schema"].(map[string]any)
		if strings.TrimSpace(name) == "" {
			continue
		}
		tools = append(tools, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        name,
				Description: description,
				Parameters:  schema,
			},
		})
	}
	return tools
}

func toOpenAIMessages(system string, messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages)+1)
	if strings.TrimSpace(system) != "" {
		out = append(out, openAIMessage{Role: "system", Content: system})
	}
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			calls := make([]openAIToolCall, 0, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				calls = append(calls, openAIToolCall{
					ID:   call.ID,
					Type: "function",
					Function: openAIFunctionCall{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
			out = append(out, openAIMessage{Role: "assistant", Content: msg.Content, ToolCalls: calls})
		case RoleTool:
			out = append(out, openAIMessage{Role: "tool", ToolCallID: msg.ToolCallID, Content: msg.Content})
		default:
			out = append(out, openAIMessage{Role: "user", Content: msg.Content})
		}
	}
	return out
}
