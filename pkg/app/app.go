// Package app 按配置装配 docflow：存储、文档服务、后台任务与 HTTP 引擎.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/docflow/pkg/api"
	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/jobs"
	"github.com/yeisme/docflow/pkg/internal/service"
	"github.com/yeisme/docflow/pkg/internal/storage"
	"github.com/yeisme/docflow/pkg/log"
	"github.com/yeisme/docflow/pkg/metrics"
	"github.com/yeisme/docflow/pkg/rule"
	"github.com/yeisme/docflow/pkg/scheduler"
	"github.com/yeisme/docflow/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

// App 运行中的服务.
type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	manager   *storage.Manager
	service   *service.DocumentService
	scheduler *scheduler.Scheduler
	logger    zerolog.Logger
}

// NewApp 初始化配置、日志、追踪、监控与存储，并注册路由与后台任务.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	config := configs.GetConfig()

	log.Init()
	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	rule.SetDocumentTypes(config.Policy.TypeNames())

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if config.Metrics.Enabled {
		if err := manager.GetDBClient().RegisterGORMMetrics(config.DB.Database); err != nil {
			l.Warn().Err(err).Msg("gorm metrics not registered")
		}
	}

	svc, err := service.NewFromManager(manager)
	if err != nil {
		_ = manager.Close()
		return nil, err
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(sched, svc, config.Workflow); err != nil {
		_ = sched.Stop()
		_ = manager.Close()

		return nil, err
	}

	engine := api.NewEngine(config, api.Deps{Storage: manager, Service: svc, Scheduler: sched})

	if err := metrics.StartMetricsServer(config.Metrics, engine); err != nil {
		l.Warn().Err(err).Msg("metrics endpoint not mounted")
	}

	return &App{
		Engine:    engine,
		config:    config,
		manager:   manager,
		service:   svc,
		scheduler: sched,
		logger:    log.Component("app"),
	}, nil
}

// Service 返回文档服务，供命令行直接调用.
func (a *App) Service() *service.DocumentService { return a.service }

// Run 启动调度器与 HTTP 服务，ctx 结束后优雅退出.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	a.scheduler.Start()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", srv.Addr).Str("version", configs.AppVersion).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info().Msg("shutting down")

	return errors.Join(runErr, srv.Shutdown(shutdownCtx), a.Close(shutdownCtx))
}

// Close 停止后台任务并释放存储与追踪资源.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(
		a.scheduler.Stop(),
		a.manager.Close(),
		tracing.ShutdownTracer(ctx),
	)
}
