package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort          = 8080      // 监听端口
	DefaultHost          = "0.0.0.0" // 监听地址
	DefaultReloadConfig  = true      // 是否启用配置热重载
	DefaultDebug         = false     // 是否启用调试模式
	DefaultTimeout       = 30        // 常规请求超时时间，单位秒
	DefaultUploadTimeout = 120       // 上传请求超时时间（含同步 OCR），单位秒
)

type (
	// ServerConfig 服务器配置.
	ServerConfig struct {
		Port         int    `mapstructure:"port"           rule:"min=1,max=65535"`
		Host         string `mapstructure:"host"           rule:"ip"`
		ReloadConfig bool   `mapstructure:"reload_config"`
		Debug        bool   `mapstructure:"debug"`
		Timeout      int    `mapstructure:"timeout"        rule:"min=1,max=300"`
		// UploadTimeout 上传路径单独的超时：同步 OCR 会阻塞 handler，给更宽的窗口
		UploadTimeout int `mapstructure:"upload_timeout" rule:"min=1,max=600"`
		// UploadRPS / UploadBurst 上传路由的限流参数，0 表示不限流
		UploadRPS   float64 `mapstructure:"upload_rps"`
		UploadBurst int     `mapstructure:"upload_burst"`
	}
)

// GetTimeoutDuration 返回常规超时时间作为 time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// GetUploadTimeoutDuration 返回上传超时时间作为 time.Duration.
func (s *ServerConfig) GetUploadTimeoutDuration() time.Duration {
	return time.Duration(s.UploadTimeout) * time.Second
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.upload_timeout", DefaultUploadTimeout)
	v.SetDefault("server.upload_rps", 0.0)
	v.SetDefault("server.upload_burst", 0)
}
