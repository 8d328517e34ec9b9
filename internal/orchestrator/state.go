package orchestrator

import "time"

// loopState is the request-scoped record of loop progress. Turns consume one
// state and produce the next, so each transition can be tested on its own;
// nothing here outlives the request.
type loopState struct {
	step       int
	startedAt  time.Time
	messages   []Message
	results    map[string]Envelope
	finalTexts []string
}

func newLoopState(now time.Time, history []Message, userMsg string) loopState {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, userMessage(userMsg))
	return loopState{
		startedAt: now,
		messages:  messages,
		results:   map[string]Envelope{},
	}
}

func (s loopState) elapsed(now time.Time) time.Duration {
	return now.Sub(s.startedAt)
}

func (s loopState) appendMessages(msgs ...Message) loopState {
	next := s
	next.messages = append(append([]Message(nil), s.messages...), msgs...)
	return next
}

func (s loopState) appendFinalText(text string) loopState {
	if text == "" {
		return s
	}
	next := s
	next.finalTexts = append(append([]string(nil), s.finalTexts...), text)
	return next
}

func (s loopState) withResult(id string, env Envelope) loopState {
	next := s
	next.results = make(map[string]Envelope, len(s.results)+1)
	for key, value := range s.results {
		next.results[key] = value
	}
	next.results[id] = env
	return next
}

func (s loopState) nextStep() loopState {
	next := s
	next.step++
	return next
}
