package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MockBaseURL selects the offline client, useful when no backend is running.
const MockBaseURL = "mock://"

// ChatRequest is the body sent to the backend's /api/chat endpoint. The
// conversation history is the full transcript, chat and code events
// interleaved in ledger order; the backend replays it verbatim.
type ChatRequest struct {
	ConversationHistory []HistoryEvent `json:"conversation_history"`
	ProblemStatement    string         `json:"problem_statement"`
	LessonGoals         []string       `json:"lesson_goals"`
	CommonMistakes      []string       `json:"common_mistakes"`
}

type ChatReply struct {
	Content     string `json:"content"`
	UpdatedCode string `json:"updated_code,omitempty"`
}

type ChatClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewChatClient(baseURL string, timeout time.Duration) *ChatClient {
	if baseURL == "" {
		baseURL = "http://localhost:8000/api/chat"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *ChatClient) Send(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if c.BaseURL == MockBaseURL {
		return c.mockSend(req)
	}
	if req.ConversationHistory == nil {
		return nil, errors.New("conversation history is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("chat backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var reply ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("invalid chat response: %w", err)
	}
	return &reply, nil
}

// mockSend fabricates a plausible turn so the full UI, ledger, and playback
// paths are exercisable without a backend. It echoes a hint and, when the
// learner mentions code, extends the peer's latest committed code.
func (c *ChatClient) mockSend(req ChatRequest) (*ChatReply, error) {
	lastChat := ""
	lastAgentCode := ""
	for _, ev := range req.ConversationHistory {
		switch {
		case ev.Kind == EventChat && ev.Author == ActorUser:
			lastChat = ev.Content
		case ev.Kind == EventCode && ev.Author == ActorAgent:
			lastAgentCode = ev.Content
		}
	}

	reply := &ChatReply{
		Content: "Good question! Walk me through what you expect line by line - where does it first diverge from what you see?",
	}
	lower := strings.ToLower(lastChat)
	if strings.Contains(lower, "code") || strings.Contains(lower, "fix") || strings.Contains(lower, "show") {
		updated := strings.TrimRight(lastAgentCode, "\n")
		if updated != "" {
			updated += "\n"
		}
		updated += "# let's test this step by step\nprint('checking...')\n"
		reply.Content = "Here's my take - I added a quick check at the end so we can see what's happening."
		reply.UpdatedCode = updated
	}
	return reply, nil
}
