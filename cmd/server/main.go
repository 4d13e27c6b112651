package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/user/moviegraph/internal/config"
	"github.com/user/moviegraph/internal/graph"
	"github.com/user/moviegraph/internal/handler"
	"github.com/user/moviegraph/internal/ingest"
	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/repository"
	"github.com/user/moviegraph/internal/router"
	"github.com/user/moviegraph/internal/service"
	"github.com/user/moviegraph/internal/similarity"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer zl.Sync()

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("数据库连接失败", "error", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		zl.Fatal("数据库迁移失败", "error", err)
	}

	// 初始化仓库
	repos := repository.NewRepositories(db, repository.SinkOptions{
		BatchSize: cfg.SinkBatchSize,
		Retry: repository.RetryPolicy{
			MaxAttempts: cfg.SinkMaxAttempts,
			MinBackoff:  cfg.SinkMinBackoff,
			MaxBackoff:  cfg.SinkMaxBackoff,
		},
	}, zl)

	store := graph.NewStore()
	engine, err := similarity.NewEngine(store, repos.Similarity, cfg.SimilarTopK, cfg.SimilarCacheSize, zl)
	if err != nil {
		zl.Fatal("相似度引擎初始化失败", "error", err)
	}
	movies := service.NewMovieService(store, engine)
	catalog := service.NewCatalogService(repos.Query, cfg.CatalogCacheTTL)
	exporter := service.NewExportService(store, repos.Catalog, engine, catalog, zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 后台加载，加载期间只读接口可用
	pipeline := ingest.NewPipeline(store, cfg.Files, ingest.Options{
		QueueSize:  cfg.IngestQueueSize,
		MaxWorkers: cfg.IngestMaxWorkers,
		NumCPU:     runtime.NumCPU(),
	}, zl)
	go func() {
		report, err := pipeline.Run(ctx)
		if err != nil {
			zl.Error("[Main] 数据加载失败", "error", err)
			return
		}
		if report.Skipped || !cfg.ExportOnLoad {
			return
		}
		if _, err := exporter.Export(ctx); err != nil {
			zl.Error("[Main] 写入数据库失败", "error", err)
		}
	}()

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(cfg, movies, catalog, exporter, zl)
	r := router.New(h, zl)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		zl.Info("服务器启动", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("服务器启动失败", "error", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器，同时取消仍在进行的加载
	<-ctx.Done()
	zl.Info("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("服务器强制关闭", "error", err)
	}

	zl.Info("服务器已退出")
}
