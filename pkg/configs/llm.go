package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultLLMBaseURL     = "https://api.openai.com/v1"
	DefaultLLMModelID     = "gpt-4o"
	DefaultLLMCallTimeout = 60  // 秒
	DefaultLLMMaxTokens   = 0   // 0 表示不限制
	DefaultLLMTemperature = 0.2 // 结构化抽取倾向低温
)

// LLMConfig 视觉 LLM（chat-completion 兼容端点）配置. worker 必须提供 api_key.
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	ModelID string `mapstructure:"model_id"`
	// CallTimeoutSeconds 单次调用超时（秒），超时按瞬态错误处理
	CallTimeoutSeconds int     `mapstructure:"call_timeout_seconds" rule:"min=1,max=600"`
	MaxTokens          int     `mapstructure:"max_tokens"           rule:"min=0"`
	Temperature        float64 `mapstructure:"temperature"          rule:"gte=0,lte=2"`
}

// GetCallTimeout 返回单次调用超时作为 time.Duration.
func (c *LLMConfig) GetCallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// setDefaults 设置 LLM 配置的默认值.
func (c *LLMConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", DefaultLLMBaseURL)
	v.SetDefault("llm.model_id", DefaultLLMModelID)
	v.SetDefault("llm.call_timeout_seconds", DefaultLLMCallTimeout)
	v.SetDefault("llm.max_tokens", DefaultLLMMaxTokens)
	v.SetDefault("llm.temperature", DefaultLLMTemperature)
}
