// Package llm 提供视觉 LLM 适配器，走 chat-completion 兼容端点.
//
// 适配器只负责"图片 + 提示词 → 原始文本"，结构化解析与结果分类见 parse.go.
// 单次调用有显式超时；连续失败时通过熔断器快速失败，避免积压 worker 循环.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/metrics"
	nlog "github.com/luoxiv/enervision/pkg/log"
)

// ErrUnavailable LLM 端点熔断中.
var ErrUnavailable = errors.New("llm endpoint unavailable")

// Client 视觉 LLM 客户端.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker
}

// NewClient 按配置创建客户端.
func NewClient(cfg *configs.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api_key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	const minBreakerRequests = 3

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "vision-llm",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= minBreakerRequests && counts.ConsecutiveFailures >= minBreakerRequests
		},
	})

	return &Client{
		api:         openai.NewClientWithConfig(clientConfig),
		model:       cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.GetCallTimeout(),
		breaker:     breaker,
	}, nil
}

// AnalyzeImage 携带图片与提示词调用视觉模型，返回原始文本回复.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, contentType, prompt string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: float32(c.temperature),
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.api.CreateChatCompletion(callCtx, req)
		if err != nil {
			return nil, err
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no choices in response")
		}

		return resp.Choices[0].Message.Content, nil
	})

	metrics.LLMCallDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %s", ErrUnavailable, err)
		}

		nlog.Logger().Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("llm call failed")

		return "", err
	}

	content, _ := result.(string)

	return content, nil
}

// Transient 判断调用错误是否为瞬态（可稍后重试）.
// 超时、熔断、限流与 5xx 视为瞬态；4xx（鉴权、请求格式）为永久错误.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrUnavailable) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests ||
			reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}

	// 网络层错误（连接拒绝、DNS 等）按瞬态处理
	return !strings.Contains(err.Error(), "invalid")
}
