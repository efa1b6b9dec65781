package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/beefriend/beefriend-api/internal/goals"
	"github.com/beefriend/beefriend-api/internal/models"
)

const (
	DefaultCompanionBaseURL = "https://api.groq.com/openai/v1"
	DefaultCompanionModel   = "llama3-70b-8192"

	maxMessageLength = 4000
	noResponse       = "No response from the bot."
)

// ChatCompleter is the part of the OpenAI-compatible client the companion uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Companion is BeeFriend, the chatbot that cheers users on their goals.
type Companion struct {
	client ChatCompleter
	model  string
}

// NewCompanion talks to an OpenAI-compatible endpoint (Groq by default).
func NewCompanion(apiKey, baseURL, model string) *Companion {
	config := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultCompanionBaseURL
	}
	config.BaseURL = baseURL

	return NewCompanionWithClient(openai.NewClientWithConfig(config), model)
}

func NewCompanionWithClient(client ChatCompleter, model string) *Companion {
	if model == "" {
		model = DefaultCompanionModel
	}
	return &Companion{client: client, model: model}
}

// Reply answers one message from user.
func (c *Companion) Reply(ctx context.Context, user *models.User, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", models.NewValidationError("message", "is required")
	}
	if len([]rune(message)) > maxMessageLength {
		return "", models.NewValidationError("message", fmt.Sprintf("must be at most %d characters", maxMessageLength))
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(user)},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("companion reply: %w: %v", models.ErrUpstream, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return noResponse, nil
	}
	return resp.Choices[0].Message.Content, nil
}

const (
	promptIntro = "You are BeeFriend act NOT as an assistant, but as pet or friend! A cute bee that helps the user's health and wellness journey."
	promptStyle = "Talk in a friendly, younger, and cute manner. Keep your answers concise and not superfluous, act as if you are texting with a friend."
)

// SystemPrompt personalizes the companion with the user's goals and about text.
func SystemPrompt(user *models.User) string {
	var names []string
	about := ""
	if user != nil {
		names = goals.GoalNames(user.Goals)
		about = strings.TrimSpace(user.About)
	}

	parts := []string{promptIntro}
	switch {
	case len(names) == 0 && about == "":
	case len(names) == 0:
		parts = append(parts, "The user has not set any goals yet. This is a little more about them: "+about+".")
	case about == "":
		parts = append(parts, "The user is working on the following goals: "+strings.Join(names, ", ")+".")
	default:
		parts = append(parts,
			"The user is working on the following goals: "+strings.Join(names, ", ")+".",
			"This is a little more about the user: "+about+".")
	}
	parts = append(parts, promptStyle)
	return strings.Join(parts, " ")
}
