package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Ranjith-47/care-navigator/internal/consultation"
)

// ErrUnavailable wraps every failure to obtain an elaboration.
var ErrUnavailable = errors.New("assistant unavailable")

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 15 * time.Second

	// maxHistory bounds how many recent messages are sent upstream.
	maxHistory = 20
)

const systemPrompt = `You are a triage support assistant for a care navigation service.
A rule-based engine has already decided the care level; you must not change it, contradict it, or offer a diagnosis.
Write at most three short sentences of plain-language guidance that fit the conversation.
If the patient describes an emergency, tell them to call 108 immediately.`

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

// Advise returns advisory text for the conversation so far.
func (c *Client) Advise(ctx context.Context, history []consultation.Message, hints consultation.Hints) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    buildMessages(history, hints),
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildMessages(history []consultation.Message, hints consultation.Hints) []openai.ChatCompletionMessage {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt + "\n\n" + describeHints(hints),
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == consultation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return msgs
}

func describeHints(h consultation.Hints) string {
	category := h.Category
	if category == "" {
		category = "unknown"
	}
	s := "Symptom category: " + category + "."
	if h.RedFlagPresent {
		s += " A red-flag emergency pattern was detected."
	}
	return s
}
