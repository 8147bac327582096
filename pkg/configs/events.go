package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
// 事件仅用于观测与下游集成，两个执行面之间的协调始终走 asset.status.
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Asset   AssetEventsConfig `mapstructure:"asset"`
}

// AssetEventsConfig 针对资产流水线的事件开关。
type AssetEventsConfig struct {
	Stored      bool `mapstructure:"stored"`       // 资产入库（blob + 元数据落库）
	Routed      bool `mapstructure:"routed"`       // 路由决策完成
	Parsed      bool `mapstructure:"parsed"`       // 解析完成（OCR 或 LLM）
	ParseFailed bool `mapstructure:"parse_failed"` // 解析失败（含 llm_unparseable）
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.asset.stored", true)
	v.SetDefault("events.asset.parsed", true)
	v.SetDefault("events.asset.parse_failed", true)

	// 路由事件较多，默认关闭
	v.SetDefault("events.asset.routed", false)
}
