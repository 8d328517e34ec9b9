package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/seometrics/internal/db"
	"github.com/user/seometrics/internal/orchestrator"
)

const (
	historyLoadLimit = 20
	historyKeepLimit = 50
)

type chatRequestBody struct {
	Message        string            `json:"message"`
	SiteURL        string            `json:"site_url,omitempty"`
	SystemPrompt   string            `json:"system_prompt,omitempty"`
	History        []chatHistoryItem `json:"history,omitempty"`
	AvailableTools []string          `json:"available_tools,omitempty"`
}

type chatHistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseBody struct {
	Success     bool                             `json:"success"`
	Content     string                           `json:"content"`
	ToolResults map[string]orchestrator.Envelope `json:"tool_results"`
	Steps       int                              `json:"steps"`
}

func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	var body chatRequestBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		jsonError(w, http.StatusBadRequest, "message is required")
		return
	}
	userToken := callerToken(r)
	if userToken == "" {
		jsonError(w, http.StatusUnauthorized, "user token is required")
		return
	}

	// Callers that manage their own conversation send history inline;
	// otherwise the persisted conversation is replayed.
	var history []orchestrator.Message
	if len(body.History) > 0 {
		history = make([]orchestrator.Message, 0, len(body.History))
		for _, item := range body.History {
			history = append(history, orchestrator.Message{Role: item.Role, Content: item.Content})
		}
	} else {
		history = h.loadHistory(r, userToken)
	}

	result, err := h.runner.Run(r.Context(), orchestrator.ChatRequest{
		SystemPrompt:   body.SystemPrompt,
		History:        history,
		UserMessage:    body.Message,
		UserToken:      userToken,
		SiteURL:        body.SiteURL,
		AvailableTools: body.AvailableTools,
	})
	if err != nil {
		slog.Error("chat run failed", "error", err)
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.persistTurn(r, userToken, body.Message, result.Content)

	toolResults := result.ToolResults
	if toolResults == nil {
		toolResults = map[string]orchestrator.Envelope{}
	}
	jsonResponse(w, http.StatusOK, chatResponseBody{
		Success:     true,
		Content:     result.Content,
		ToolResults: toolResults,
		Steps:       result.Steps,
	})
}

// loadHistory replays the user's persisted conversation. A read failure
// degrades to an empty history rather than failing the chat.
func (h *handler) loadHistory(r *http.Request, userToken string) []orchestrator.Message {
	stored, err := h.historyRepo.ListByUser(r.Context(), userToken, historyLoadLimit)
	if err != nil {
		slog.Warn("load chat history failed", "error", err)
		return nil
	}
	history := make([]orchestrator.Message, 0, len(stored))
	for _, msg := range stored {
		history = append(history, orchestrator.Message{Role: msg.Role, Content: msg.Content})
	}
	return history
}

func (h *handler) persistTurn(r *http.Request, userToken string, userMessage string, assistantReply string) {
	ctx := r.Context()
	if err := h.historyRepo.Create(ctx, &db.ChatMessage{
		UserToken: userToken,
		Role:      orchestrator.RoleUser,
		Content:   userMessage,
	}); err != nil {
		slog.Warn("persist user message failed", "error", err)
		return
	}
	if strings.TrimSpace(assistantReply) != "" {
		if err := h.historyRepo.Create(ctx, &db.ChatMessage{
			UserToken: userToken,
			Role:      orchestrator.RoleAssistant,
			Content:   assistantReply,
		}); err != nil {
			slog.Warn("persist assistant message failed", "error", err)
		}
	}
	if err := h.historyRepo.TrimUser(ctx, userToken, historyKeepLimit); err != nil {
		slog.Warn("trim chat history failed", "error", err)
	}
}

func (h *handler) chatHistory(w http.ResponseWriter, r *http.Request) {
	userToken := callerToken(r)
	if userToken == "" {
		jsonError(w, http.StatusUnauthorized, "user token is required")
		return
	}
	messages, err := h.historyRepo.ListByUser(r.Context(), userToken, queryLimit(r, historyKeepLimit))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"messages": messages})
}
