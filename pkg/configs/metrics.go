package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MetricsConfig Metrics相关配置.
type MetricsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`          // 是否启用Metrics
	ServiceName     string        `mapstructure:"service_name"`     // 服务名称
	Endpoint        string        `mapstructure:"endpoint"`         // 指标服务端点
	CollectInterval time.Duration `mapstructure:"collect_interval"` // 收集间隔
	RuntimeMetrics  bool          `mapstructure:"runtime_metrics"`  // 是否收集运行时指标
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.service_name", "enervision")
	v.SetDefault("metrics.endpoint", ":9090")
	v.SetDefault("metrics.collect_interval", "15s")
	v.SetDefault("metrics.runtime_metrics", true)
}
