// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP 与解析流水线指标.
//
// Example:
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.AssetUploads.WithLabelValues("meter").Inc()
//	metrics.LLMCalls.WithLabelValues("scene_issue", "ok").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luoxiv/enervision/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// AssetUploads 按 content_role 统计的上传量.
	AssetUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_uploads_total",
			Help: "Total number of uploaded image assets by content role",
		},
		[]string{"content_role"},
	)

	// OCRRuns OCR 阶段执行计数，outcome ∈ {ok, low_conf, error}.
	OCRRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_runs_total",
			Help: "Total number of OCR stage executions",
		},
		[]string{"engine", "outcome"},
	)

	// LLMCalls 视觉 LLM 调用计数，outcome ∈ {ok, transient, unparseable}.
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_llm_calls_total",
			Help: "Total number of vision LLM calls by role and outcome",
		},
		[]string{"content_role", "outcome"},
	)

	// LLMCallDuration 视觉 LLM 调用时延.
	LLMCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scene_llm_call_duration_seconds",
			Help:    "Vision LLM call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
	)

	// PendingSceneLLM pending_scene_llm 状态的资产积压.
	PendingSceneLLM = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_scene_llm_assets",
			Help: "Number of assets waiting for the scene LLM worker",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	registry.MustRegister(
		RequestCounter, RequestDuration,
		AssetUploads, OCRRuns, LLMCalls, LLMCallDuration, PendingSceneLLM,
	)

	return nil
}

// Registry 返回注册表，供 gorm prometheus 插件等复用.
func Registry() *prometheus.Registry {
	return registry
}

// StartMetricsServer 在独立端口启动 /metrics 服务.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	if engine != nil {
		engine.GET("/metrics", gin.WrapH(handler))
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		//nolint:errcheck // 指标服务失败不影响主流程
		http.ListenAndServe(config.Endpoint, mux)
	}()

	return nil
}
