package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/utils"
)

// Translator turns a natural-language question into a SQL query over the
// pricing schema. The translation is constrained by instruction only; the
// caller still screens the result before executing it.
type Translator interface {
	TranslateToSQL(ctx context.Context, question string) (string, error)
}

const translatorSystemPrompt = `You are a SQL expert for a healthcare pricing database. Convert natural language questions into SQL queries.

Database schema:
- providers: provider_id, provider_name, provider_city, provider_state, provider_zip_code
- procedures: id, ms_drg_code, ms_drg_description
- provider_procedures: provider_id, procedure_id, total_discharges, average_covered_charges, average_total_payments, average_medicare_payments
- ratings: provider_id, rating (1-10 scale)

Rules:
1. Always use JOINs to get complete data
2. Use ILIKE for text searches
3. Return only the SQL query, no explanations
4. Use proper table aliases (p for providers, pr for procedures, pp for provider_procedures, r for ratings)
5. For cost queries, use average_total_payments
6. For quality queries, use ratings.rating
7. Only generate read-only SELECT statements
8. Always include provider_name and relevant procedure info in SELECT`

type openAIClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries int
}

// NewOpenAIClient builds a chat-completions backed Translator. OPENAI_API_KEY
// is required; base URL, model, timeout and retry count come from the
// environment with sensible defaults.
func NewOpenAIClient(log *logger.Logger) (Translator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := utils.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 60, log)
	if timeoutSec <= 0 {
		timeoutSec = 60
	}
	maxRetries := utils.GetEnvAsInt("OPENAI_MAX_RETRIES", 3, log)
	if maxRetries < 0 {
		maxRetries = 3
	}

	return &openAIClient{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *openAIHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) TranslateToSQL(ctx context.Context, question string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: translatorSystemPrompt},
			{Role: "user", Content: question},
		},
		MaxTokens:   500,
		Temperature: 0.1,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			backoff += time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
			c.log.Warn("Retrying translation call", "attempt", attempt, "backoff", backoff.String(), "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		sql, err := c.call(ctx, payload)
		if err == nil {
			return sql, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryableErr(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (c *openAIClient) call(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
