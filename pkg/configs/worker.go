package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultWorkerPollInterval    = 5.0 // 秒
	DefaultWorkerMaxParseAttempts = 3  // 同一资产 JSON 解析失败的重试上限（跨轮询周期）
)

// WorkerConfig 场景 LLM worker 配置.
type WorkerConfig struct {
	// PollIntervalSeconds 轮询间隔（秒），候选为空或瞬态失败后按此间隔休眠
	PollIntervalSeconds float64 `mapstructure:"poll_interval_seconds" rule:"gt=0"`
	// MaxParseAttempts 同一资产响应无法解析为目标 schema 的尝试上限，
	// 达到上限后写入 llm_unparseable 诊断 payload 并跳过该资产
	MaxParseAttempts int `mapstructure:"max_parse_attempts" rule:"min=1,max=10"`
}

// GetPollInterval 返回轮询间隔作为 time.Duration.
func (c *WorkerConfig) GetPollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds * float64(time.Second))
}

// setDefaults 设置 worker 配置的默认值.
func (c *WorkerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("worker.poll_interval_seconds", DefaultWorkerPollInterval)
	v.SetDefault("worker.max_parse_attempts", DefaultWorkerMaxParseAttempts)
}
