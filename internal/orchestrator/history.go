package orchestrator

// History trimming works on a character budget, roughly four characters per
// token. This is a deliberate approximation, not real tokenization; the
// bounds below are sized with that slack in mind.
const approxCharsPerToken = 4

func messageSize(msg Message) int {
	size := len(msg.Content)
	for _, call := range msg.ToolCalls {
		size += len(call.Name) + len(call.Arguments)
	}
	return size
}

// trimHistory drops messages from the oldest end until the estimated size of
// what remains fits charBudget. The newest message always survives, even when
// it alone exceeds the budget. A tool result never appears without the
// assistant message that requested it: leading tool messages left behind by a
// trimmed assistant turn are dropped, and when the budget cuts inside the
// newest tool block the assistant turn is kept with its results instead.
func trimHistory(messages []Message, charBudget int) []Message {
	if len(messages) == 0 || charBudget <= 0 {
		return messages
	}

	total := 0
	start := len(messages) - 1
	for i := len(messages) - 1; i >= 0; i-- {
		size := messageSize(messages[i])
		if i < len(messages)-1 && total+size > charBudget {
			break
		}
		total += size
		start = i
	}

	for start < len(messages)-1 && messages[start].Role == RoleTool {
		start++
	}
	if messages[start].Role == RoleTool {
		// The newest messages are tool results and advancing further would
		// drop them; back up to the assistant turn that issued the calls.
		for start > 0 && messages[start].Role == RoleTool {
			start--
		}
	}
	return messages[start:]
}
