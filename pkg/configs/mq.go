package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS MQType = "nats"

	DefaultMQURL         = "localhost:4222"
	DefaultMaxReconnects = 5                    // 默认最大重连次数
	DefaultReconnectWait = 5                    // 默认重连等待时间（秒）
	DefaultMQClientID    = "enervision-app"     // 默认客户端ID
	DefaultMaxPingsOut   = 3                    // 默认最大未响应 ping 次数
	DefaultPingInterval  = 20                   // 默认 ping 间隔（秒）
	DefaultBufferSize    = 32768                // 默认重连缓冲区大小 (32KB)
	DefaultStreamName    = "enervision-stream"  // 默认 JetStream 流名称
	DefaultDurablePrefix = "enervision-durable" // 默认 durable 前缀
)

// MQConfig 消息队列配置. 目前仅支持 NATS（可选 JetStream 持久化）.
type MQConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    MQType `mapstructure:"type" rule:"oneof=nats"`

	URL           string `mapstructure:"url"            rule:"omitempty,hostname_port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	ClientID      string `mapstructure:"client_id"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	MaxPingsOut   int    `mapstructure:"max_pings_out"  rule:"min=1,max=10"`
	PingInterval  int    `mapstructure:"ping_interval"  rule:"min=1,max=300"`
	BufferSize    int    `mapstructure:"buffer_size"    rule:"min=1024,max=1048576"`

	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
	StreamName             string `mapstructure:"stream_name"`
	SubjectPrefix          string `mapstructure:"subject_prefix"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.enabled", false)
	v.SetDefault("mq.type", MQTypeNATS)
	v.SetDefault("mq.url", DefaultMQURL)
	v.SetDefault("mq.user", "")
	v.SetDefault("mq.password", "")
	v.SetDefault("mq.client_id", DefaultMQClientID)
	v.SetDefault("mq.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.max_pings_out", DefaultMaxPingsOut)
	v.SetDefault("mq.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.buffer_size", DefaultBufferSize)
	v.SetDefault("mq.jetstream_enabled", true)
	v.SetDefault("mq.jetstream_auto_provision", true)
	v.SetDefault("mq.jetstream_track_msg_id", true)
	v.SetDefault("mq.jetstream_durable_prefix", DefaultDurablePrefix)
	v.SetDefault("mq.stream_name", DefaultStreamName)
	v.SetDefault("mq.subject_prefix", "enervision.")
}
