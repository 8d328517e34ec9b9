package orchestrator

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTrimHistoryKeepsEverythingUnderBudget(t *testing.T) {
	messages := []Message{
		userMessage("first"),
		{Role: RoleAssistant, Content: "second"},
		userMessage("third"),
	}
	trimmed := trimHistory(messages, 1000)
	if len(trimmed) != 3 {
		t.Fatalf("len = %d, want 3", len(trimmed))
	}
}

func TestTrimHistoryDropsOldestFirst(t *testing.T) {
	messages := []Message{
		userMessage(strings.Repeat("a", 100)),
		{Role: RoleAssistant, Content: strings.Repeat("b", 100)},
		userMessage(strings.Repeat("c", 100)),
	}
	trimmed := trimHistory(messages, 250)
	if len(trimmed) != 2 {
		t.Fatalf("len = %d, want 2", len(trimmed))
	}
	if trimmed[0].Role != RoleAssistant {
		t.Fatalf("oldest surviving message = %+v, want the assistant turn", trimmed[0])
	}
}

func TestTrimHistoryNeverDropsNewest(t *testing.T) {
	messages := []Message{
		userMessage("old"),
		userMessage(strings.Repeat("x", 5000)),
	}
	trimmed := trimHistory(messages, 100)
	if len(trimmed) != 1 {
		t.Fatalf("len = %d, want 1", len(trimmed))
	}
	if trimmed[0].Content != messages[1].Content {
		t.Fatal("newest message must always survive")
	}
}

func TestTrimHistoryDropsOrphanedToolMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleAssistant, Content: strings.Repeat("a", 200), ToolCalls: []ToolCall{{ID: "c1", Name: "SITE_get_status"}}},
		toolMessage("c1", `{"success":true}`),
		userMessage("and now?"),
		{Role: RoleAssistant, Content: "checking"},
	}
	// Budget fits everything except the assistant turn that issued c1; its
	// tool result must go with it.
	trimmed := trimHistory(messages, 60)
	for _, msg := range trimmed {
		if msg.Role == RoleTool {
			t.Fatalf("orphaned tool message survived: %+v", msg)
		}
	}
	if trimmed[0].Content != "and now?" {
		t.Fatalf("first surviving message = %+v", trimmed[0])
	}
}

func TestTrimHistoryKeepsAssistantWithNewestToolBlock(t *testing.T) {
	messages := []Message{
		userMessage("sync everything"),
		{Role: RoleAssistant, Content: "on it", ToolCalls: []ToolCall{
			{ID: "c1", Name: "GSC_sync_data"},
			{ID: "c2", Name: "SITE_get_status"},
		}},
		toolMessage("c1", strings.Repeat("a", 300)),
		toolMessage("c2", strings.Repeat("b", 300)),
	}
	// Budget cuts inside the tool block; the assistant turn must stay with
	// its results rather than leave a leading orphan tool message.
	trimmed := trimHistory(messages, 350)
	if len(trimmed) == 0 {
		t.Fatal("trim dropped everything")
	}
	if trimmed[0].Role == RoleTool {
		t.Fatalf("trim produced a leading tool message: %+v", trimmed[0])
	}
	if trimmed[0].Role != RoleAssistant {
		t.Fatalf("first surviving message = %+v, want the assistant turn", trimmed[0])
	}
	if trimmed[len(trimmed)-1].ToolCallID != "c2" {
		t.Fatal("newest message must survive")
	}
}

func TestMessageSizeCountsToolCalls(t *testing.T) {
	msg := Message{
		Role:      RoleAssistant,
		Content:   "hi",
		ToolCalls: []ToolCall{{Name: "SITE_get_status", Arguments: json.RawMessage(`{"site_url":"example.com"}`)}},
	}
	want := len("hi") + len("SITE_get_status") + len(`{"site_url":"example.com"}`)
	if got := messageSize(msg); got != want {
		t.Fatalf("messageSize = %d, want %d", got, want)
	}
}
