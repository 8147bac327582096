// Package ocr 提供图片文字识别引擎抽象.
//
// 引擎通过工厂模式注册，进程级懒加载单例. 目前支持:
//   - paddleocr   通过 HTTP 调用 PaddleOCR serving 服务
//   - gcp_vision  Google Cloud Vision DOCUMENT_TEXT_DETECTION
//
// 引擎取值由配置 ocr.engine 决定.
package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/schema"
)

// Engine 文字识别引擎接口. Recognize 的实现必须并发安全.
type Engine interface {
	// Recognize 识别图片中的文字行.
	Recognize(ctx context.Context, image []byte) ([]schema.OCRLine, error)
	// Name 引擎标识，写入 image_annotation.stats.engine.
	Name() string
	// Close 释放引擎资源.
	Close() error
}

// Factory 定义创建引擎的工厂函数类型.
type Factory func(ctx context.Context, cfg *configs.OCRConfig) (Engine, error)

var factories = map[configs.OCREngineType]Factory{}

// RegisterFactory 注册引擎工厂函数.
func RegisterFactory(engine configs.OCREngineType, factory Factory) {
	factories[engine] = factory
}

// GetRegisteredEngines 返回已注册的引擎类型列表.
func GetRegisteredEngines() []configs.OCREngineType {
	engines := make([]configs.OCREngineType, 0, len(factories))
	for e := range factories {
		engines = append(engines, e)
	}

	return engines
}

// New 根据配置创建引擎实例.
func New(ctx context.Context, cfg *configs.OCRConfig) (Engine, error) {
	factory, exists := factories[cfg.Engine]
	if !exists {
		return nil, fmt.Errorf("unsupported ocr engine: %s", cfg.Engine)
	}

	return factory(ctx, cfg)
}

var (
	engineOnce sync.Once
	engineInst Engine
	engineErr  error
)

// Get 返回进程级引擎单例，首次调用时按全局配置初始化.
func Get(ctx context.Context) (Engine, error) {
	engineOnce.Do(func() {
		cfg := configs.GetConfig().OCR
		engineInst, engineErr = New(ctx, &cfg)
	})

	return engineInst, engineErr
}

// AvgConfidence 计算行置信度均值，空输入返回 0.
func AvgConfidence(lines []schema.OCRLine) float64 {
	if len(lines) == 0 {
		return 0
	}

	var sum float64
	for _, line := range lines {
		sum += line.Confidence
	}

	return sum / float64(len(lines))
}
