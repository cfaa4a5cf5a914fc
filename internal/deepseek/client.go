package deepseek

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

const (
	// DefaultBaseURL is DeepSeek's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.deepseek.com"
	// DefaultModel is the chat completion model.
	DefaultModel = "deepseek-chat"
)

// Client turns one user utterance into one assistant reply via DeepSeek's
// OpenAI-compatible completion API. It performs no retries and never writes
// anywhere — sequencing and persistence belong to the conversation layer.
type Client struct {
	client  *openai.Client
	model   string
	persona string
	logger  *slog.Logger
}

func NewClient(apiKey, model, baseURL, persona string, logger *slog.Logger) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	config.BaseURL = baseURL

	if model == "" {
		model = DefaultModel
	}
	if persona == "" {
		persona = DefaultPersona
	}

	return &Client{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		persona: persona,
		logger:  logger,
	}
}

// Complete sends [system persona, user text] and returns the generated reply
// verbatim. platform optionally names the front end's backtesting target and
// only extends the persona — it never reaches the store.
//
// Failures are typed: *AuthError for rejected credentials, ErrEmptyResponse
// for a 200 with no usable content, *TransportError for everything else.
func (c *Client) Complete(ctx context.Context, userText, platform string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.persona + platformHint(platform)},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("completion received",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return resp.Choices[0].Message.Content, nil
}

// classify maps SDK errors onto the gateway's failure taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return &AuthError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return &TransportError{Err: fmt.Errorf("api error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden {
			return &AuthError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
	}

	return &TransportError{Err: err}
}
