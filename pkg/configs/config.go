// Package configs 管理应用程序配置，包括数据库、Blob 存储、OCR 引擎、视觉 LLM、
// 解析 worker 与消息队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//	fmt.Println(config.Storage.Root)
//	fmt.Println(config.LLM.ModelID)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppVersion 应用版本号，编译期可通过 ldflags 覆盖.
var AppVersion = "0.1.0"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server  ServerConfig  `mapstructure:"server"`  // 服务器端口、调试开关等
		DB      DBConfig      `mapstructure:"db"`      // 元数据库配置
		Storage StorageConfig `mapstructure:"storage"` // Blob 存储配置（fs / s3）
		Log     LogConfig     `mapstructure:"log"`     // 日志相关配置
		MQ      MQConfig      `mapstructure:"mq"`      // 消息队列配置
		KV      KVConfig      `mapstructure:"kv"`      // 键值缓存配置
		Metrics MetricsConfig `mapstructure:"metrics"` // 指标配置
		Tracing TracingConfig `mapstructure:"tracing"` // 追踪配置
		Events  EventsConfig  `mapstructure:"events"`  // 事件发布开关
		OCR     OCRConfig     `mapstructure:"ocr"`     // OCR 引擎配置
		LLM     LLMConfig     `mapstructure:"llm"`     // 视觉 LLM 配置
		Worker  WorkerConfig  `mapstructure:"worker"`  // 场景 LLM worker 配置
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 配置文件允许缺省（纯环境变量部署），但解析失败会返回错误.
func InitConfig(path string) error {
	appViper = viper.New()
	setAllDefaults(appViper)

	// path 可以直接指向配置文件，也可以是包含 config.* 的目录
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(path + "/configs")

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.AutomaticEnv()
	appViper.SetEnvPrefix("ENERVISION")

	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var serverConfig ServerConfig

	var dbConfig DBConfig

	var storageConfig StorageConfig

	var logConfig LogConfig

	var mqConfig MQConfig

	var kvConfig KVConfig

	var metricsConfig MetricsConfig

	var tracingConfig TracingConfig

	var eventsConfig EventsConfig

	var ocrConfig OCRConfig

	var llmConfig LLMConfig

	var workerConfig WorkerConfig

	serverConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	storageConfig.setDefaults(v)
	logConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	ocrConfig.setDefaults(v)
	llmConfig.setDefaults(v)
	workerConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例.
func GetViper() *viper.Viper {
	return appViper
}
