// Package app 提供应用程序的初始化与生命周期管理.
package app

import (
	contextPkg "context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/context"
	"github.com/luoxiv/enervision/pkg/internal/jobs"
	"github.com/luoxiv/enervision/pkg/internal/router"
	"github.com/luoxiv/enervision/pkg/internal/storage"
	"github.com/luoxiv/enervision/pkg/log"
	"github.com/luoxiv/enervision/pkg/metrics"
	"github.com/luoxiv/enervision/pkg/middleware"
	"github.com/luoxiv/enervision/pkg/scheduler"
	"github.com/luoxiv/enervision/pkg/tracing"
)

// App 聚合 HTTP 引擎、存储与调度器.
type App struct {
	Engine  *gin.Engine
	Manager *storage.Manager

	config *configs.AppConfig
	sched  *scheduler.Scheduler
}

// NewApp 初始化配置、日志、追踪、指标、存储与路由.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	log.Init()

	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
		gzip.Gzip(gzip.DefaultCompression),
	)

	router.Setup(engine, config)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	return &App{
		Engine:  engine,
		Manager: manager,
		config:  config,
		sched:   sched,
	}
}

// Run 启动 HTTP 服务并阻塞到收到退出信号，然后优雅下线.
func (a *App) Run() error {
	a.sched.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Logger().Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Logger().Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := contextPkg.WithTimeout(contextPkg.Background(), a.config.Server.GetTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Logger().Error().Err(err).Msg("http shutdown failed")
	}

	if err := a.sched.Stop(); err != nil {
		log.Logger().Error().Err(err).Msg("scheduler stop failed")
	}

	if err := a.Manager.Close(); err != nil {
		log.Logger().Error().Err(err).Msg("storage close failed")
	}

	if err := tracing.ShutdownTracer(shutdownCtx); err != nil {
		log.Logger().Error().Err(err).Msg("tracer shutdown failed")
	}

	return nil
}

// BaseContext 返回携带存储管理器的基础 context，供非 HTTP 入口使用.
func (a *App) BaseContext() contextPkg.Context {
	return context.WithStorageManager(contextPkg.Background(), a.Manager)
}
