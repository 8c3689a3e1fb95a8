package service

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

	"github.com/ikkim/bizdir-backend/config"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"google.golang.org/genai"
)

var (
	ErrSuggestUnavailable  = errors.New("category suggestion is not configured")
	ErrSuggestMalformed    = errors.New("category suggestion returned an unexpected response")
	ErrDescriptionRequired = errors.New("description is required")
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

// CategorySuggestion is the classifier output reconciled with the canonical
// categories. Nothing is stored; the submitter confirms it on the form.
type CategorySuggestion struct {
	Suggested string                      `json:"suggested"`
	Selection directory.CategorySelection `json:"selection"`
}

type AIService interface {
	SuggestCategory(ctx context.Context, description string) (*CategorySuggestion, error)
}

// textModel sends one prompt and returns the raw completion text.
type textModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type aiService struct {
	model      textModel
	categories CategoryService
	timeout    time.Duration
}

// NewAIService picks the configured provider. A missing key or provider
// "none" yields a service that always returns ErrSuggestUnavailable.
func NewAIService(ctx context.Context, cfg *config.AIConfig, categories CategoryService) (AIService, error) {
	var model textModel
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey != "" {
			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  cfg.GeminiAPIKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create gemini client: %w", err)
			}
			model = &geminiModel{client: client, model: cfg.GeminiModel}
		}
	case "openai":
		if cfg.OpenAIAPIKey != "" {
			model = &openAIModel{
				apiKey:   cfg.OpenAIAPIKey,
				model:    cfg.OpenAIModel,
				endpoint: openAIChatURL,
				client:   &http.Client{},
			}
		}
	}

	if model == nil {
		logger.Warn("Category suggestion disabled", map[string]interface{}{
			"provider": cfg.Provider,
		})
	}
	return newAIService(model, categories, cfg.Timeout), nil
}

func newAIService(model textModel, categories CategoryService, timeout time.Duration) *aiService {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &aiService{model: model, categories: categories, timeout: timeout}
}

func (s *aiService) SuggestCategory(ctx context.Context, description string) (*CategorySuggestion, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if s.model == nil {
		return nil, ErrSuggestUnavailable
	}

	canonical, err := s.categories.Names()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.model.Complete(ctx, buildCategoryPrompt(description, canonical))
	if err != nil {
		logger.Error("Category suggestion request failed", err, nil)
		return nil, fmt.Errorf("%w: %v", ErrSuggestUnavailable, err)
	}

	suggested, err := parseCategoryReply(raw)
	if err != nil {
		logger.Warn("Unparseable category suggestion", map[string]interface{}{
			"reply": raw,
		})
		return nil, err
	}

	return &CategorySuggestion{
		Suggested: suggested,
		Selection: directory.ReconcileSuggestion(suggested, canonical),
	}, nil
}

func buildCategoryPrompt(description string, categories []string) string {
	var prompt strings.Builder

	prompt.WriteString("You classify businesses for a community business directory.\n")
	prompt.WriteString("Pick the single best category for the business described below.\n\n")

	if len(categories) > 0 {
		prompt.WriteString("Prefer one of these existing categories when it fits:\n")
		for _, c := range categories {
			prompt.WriteString("- ")
			prompt.WriteString(c)
			prompt.WriteString("\n")
		}
		prompt.WriteString("If none fits, propose a short new category name (one to three words).\n\n")
	}

	prompt.WriteString("Business description:\n")
	prompt.WriteString(description)
	prompt.WriteString("\n\n")

	prompt.WriteString(`Respond with JSON only, exactly in the form {"category": "<name>"}.`)
	return prompt.String()
}

// parseCategoryReply extracts the category from a JSON reply, tolerating a
// surrounding markdown code fence.
func parseCategoryReply(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var reply struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return "", ErrSuggestMalformed
	}
	category := strings.TrimSpace(reply.Category)
	if category == "" {
		return "", ErrSuggestMalformed
	}
	return category, nil
}

type geminiModel struct {
	client *genai.Client
	model  string
}

func (m *geminiModel) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no response from Gemini")
	}
	return text, nil
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type openAIModel struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func (m *openAIModel) Complete(ctx context.Context, prompt string) (string, error) {
	reqData := openAIRequest{
		Model: m.model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if openAIResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(openAIResp.Choices[0].Message.Content), nil
}
