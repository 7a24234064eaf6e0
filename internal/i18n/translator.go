// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package i18n

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"
)

const maxTranslateResponse = 1 << 20

// HTTPTranslator queries a MyMemory-compatible endpoint:
// GET {endpoint}?q={text}&langpair={source}|{target}.
type HTTPTranslator struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPTranslator creates a translator limited to rps requests per second.
// A non-positive rps disables the limit.
func NewHTTPTranslator(endpoint string, rps float64, client *http.Client) *HTTPTranslator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HTTPTranslator{
		endpoint: endpoint,
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

// Translate implements Translator.
func (t *HTTPTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("translation rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", source+"|"+target)
	sep := "?"
	if strings.Contains(t.endpoint, "?") {
		sep = "&"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+sep+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating translation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("translation service returned status %d", resp.StatusCode)
	}

	var body myMemoryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTranslateResponse)).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding translation: %w", err)
	}
	out := strings.TrimSpace(body.ResponseData.TranslatedText)
	if out == "" {
		return "", errors.New("translation response has no translatedText")
	}
	return out, nil
}

const (
	defaultOpenAIModel       = "gpt-4o-mini"
	translationTemperature   = 0.1
	maxTokensTranslation     = 1000
	translationSystemMessage = "You translate website copy for a media company. " +
		"Translate the user's text from %s to %s. Reply with the translation only."
)

// OpenAITranslator translates through the chat completions API.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// NewOpenAITranslator creates a translator. baseURL may be empty.
func NewOpenAITranslator(apiKey, model, baseURL string) (*OpenAITranslator, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAITranslator{client: &client, model: model}, nil
}

// Translate implements Translator.
func (t *OpenAITranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(translationSystemMessage, source, target)),
			openai.UserMessage(text),
		},
		Model:       shared.ChatModel(t.model),
		Temperature: openai.Float(translationTemperature),
		MaxTokens:   openai.Int(maxTokensTranslation),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("empty translation from OpenAI")
	}
	return out, nil
}
