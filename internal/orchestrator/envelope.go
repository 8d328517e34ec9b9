package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the uniform result of one capability invocation. Every failure
// mode — validation, authorization, execution, malformed payload — lands
// here; nothing escapes past this boundary as an error.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func okEnvelope(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func failEnvelope(format string, args ...any) Envelope {
	return Envelope{Success: false, Error: fmt.Sprintf(format, args...)}
}

func (e Envelope) json() string {
	buf, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"%s"}`, err.Error())
	}
	return string(buf)
}

// parseArguments decodes a raw tool-call payload into an argument map. Models
// occasionally wrap the JSON object in prose or emit trailing junk, so a
// failed strict decode falls back to extracting the first balanced JSON
// object from the payload.
func parseArguments(raw json.RawMessage) (map[string]any, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return map[string]any{}, nil
	}

	args := map[string]any{}
	if err := json.Unmarshal([]byte(text), &args); err == nil {
		return args, nil
	}

	for _, chunk := range extractJSONObjectChunks(text) {
		salvaged := map[string]any{}
		if err := json.Unmarshal([]byte(chunk), &salvaged); err == nil {
			return salvaged, nil
		}
	}
	return nil, fmt.Errorf("arguments are not a JSON object")
}

func extractJSONObjectChunks(raw string) []string {
	chunks := make([]string, 0, 1)
	depth := 0
	inString := false
	escaped := false
	start := -1

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			continue
		}
		if ch == '{' {
			if depth == 0 {
				start = i
			}
			depth++
			continue
		}
		if ch == '}' {
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				chunks = append(chunks, raw[start:i+1])
				start = -1
			}
		}
	}
	return chunks
}
