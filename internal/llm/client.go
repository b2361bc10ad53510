package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// MaxImageBytes caps an image downloaded from a URL the model returned.
const MaxImageBytes = 20 << 20

// GenerateRequest holds the parameters for a text generation call.
type GenerateRequest struct {
	Task         TaskType
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
}

// GenerateResponse holds the result of a text generation call.
type GenerateResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// ImageRequest holds the parameters for an image generation call.
type ImageRequest struct {
	Prompt string
	Size   string // empty uses the configured size
}

// ImageResponse carries the rendered image bytes.
type ImageResponse struct {
	Data          []byte
	MimeType      string
	RevisedPrompt string
	Model         string
	LatencyMs     int64
}

// LLMClient provides access to text and image models.
type LLMClient interface {
	// Generate sends a prompt and returns the raw text response.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// GenerateImage renders a single image for the prompt.
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)

	// Available checks whether the endpoint is reachable.
	Available(ctx context.Context) bool
}

// openAIClient implements LLMClient against any OpenAI-compatible API.
type openAIClient struct {
	cfg      LLMConfig
	api      *openai.Client
	http     *http.Client
	limiter  *rate.Limiter
	observer Observer
	maxImage int64
}

// NewOpenAIClient creates an LLMClient for the configured endpoint.
func NewOpenAIClient(cfg LLMConfig, observer Observer) LLMClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
		},
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.Endpoint
	apiCfg.HTTPClient = httpClient

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &openAIClient{
		cfg:      cfg,
		api:      openai.NewClientWithConfig(apiCfg),
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		observer: observer,
		maxImage: MaxImageBytes,
	}
}

func (c *openAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	taskCfg := c.cfg.Tasks[req.Task]
	temp := taskCfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTok := taskCfg.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}

	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	body := openai.ChatCompletionRequest{
		Model:               c.cfg.Model,
		Messages:            messages,
		Temperature:         float32(temp),
		MaxCompletionTokens: maxTok,
	}

	resp, latency, err := withRetry(ctx, c, req.Task, c.cfg.Model, func(ctx context.Context) (*GenerateResponse, error) {
		out, err := c.api.CreateChatCompletion(ctx, body)
		if err != nil {
			return nil, err
		}
		if len(out.Choices) == 0 {
			return nil, fmt.Errorf("%w: response has no choices", ErrInvalidOutput)
		}
		return &GenerateResponse{Text: out.Choices[0].Message.Content, Model: out.Model}, nil
	})
	if err != nil {
		return nil, err
	}
	resp.LatencyMs = latency
	return resp, nil
}

func (c *openAIClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	size := req.Size
	if size == "" {
		size = c.cfg.ImageSize
	}
	body := openai.ImageRequest{
		Prompt: req.Prompt,
		Model:  c.cfg.ImageModel,
		N:      1,
		Size:   size,
	}
	// gpt-image models always return base64 and reject response_format.
	if strings.HasPrefix(c.cfg.ImageModel, "dall-e") {
		body.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, latency, err := withRetry(ctx, c, TaskVisual, c.cfg.ImageModel, func(ctx context.Context) (*ImageResponse, error) {
		out, err := c.api.CreateImage(ctx, body)
		if err != nil {
			return nil, err
		}
		if len(out.Data) == 0 {
			return nil, ErrNoImage
		}
		data, err := c.imageBytes(ctx, out.Data[0])
		if err != nil {
			return nil, err
		}
		return &ImageResponse{
			Data:          data,
			MimeType:      http.DetectContentType(data),
			RevisedPrompt: out.Data[0].RevisedPrompt,
			Model:         c.cfg.ImageModel,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	resp.LatencyMs = latency
	return resp, nil
}

func (c *openAIClient) imageBytes(ctx context.Context, item openai.ImageResponseDataInner) ([]byte, error) {
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding image: %v", ErrInvalidOutput, err)
		}
		return data, nil
	}
	if item.URL == "" {
		return nil, ErrNoImage
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating image download: %w", err)
	}
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", httpResp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxImage+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > c.maxImage {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidOutput, c.maxImage)
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return data, nil
}

func (c *openAIClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := c.api.ListModels(ctx)
	return err == nil
}

// withRetry runs call up to 1+MaxRetries times inside the task timeout,
// pacing every attempt through the rate limiter.
func withRetry[T any](ctx context.Context, c *openAIClient, task TaskType, model string, call func(context.Context) (T, error)) (T, int64, error) {
	var zero T
	start := time.Now()

	timeoutMs := c.cfg.TaskTimeout(task)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	var lastErr error
	attempts := 0
	maxAttempts := 1 + c.cfg.MaxRetries

	for attempts < maxAttempts {
		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}
		attempts++
		out, err := call(ctx)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			c.observer.OnCallComplete(LLMCallEvent{
				Task:      task,
				Model:     model,
				LatencyMs: latency,
				Attempts:  attempts,
				Success:   true,
			})
			return out, latency, nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout or a request the API rejected outright.
		if ctx.Err() != nil || isPermanent(err) {
			break
		}
	}

	latency := time.Since(start).Milliseconds()
	final := classify(ctx, lastErr)
	c.observer.OnCallComplete(LLMCallEvent{
		Task:      task,
		Model:     model,
		LatencyMs: latency,
		Attempts:  attempts,
		Success:   false,
		ErrorCode: errorCode(final),
	})
	return zero, latency, final
}

// classify maps the last attempt's error to a sentinel. Cancellation by the
// caller is returned as is.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	case isConnectionError(err):
		return ErrUnavailable
	case errors.Is(err, ErrInvalidOutput), errors.Is(err, ErrNoImage):
		return fmt.Errorf("%w: %w", ErrRetryExhausted, err)
	default:
		return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
	}
}

func isPermanent(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPStatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout
	}
	return false
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	case errors.Is(err, ErrNoImage):
		return "NO_IMAGE"
	default:
		return "UNKNOWN"
	}
}
