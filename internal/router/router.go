package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/moviegraph/internal/handler"
	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/middleware"
)

// New 创建 gin 引擎并注册路由
func New(h *handler.Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	// 标题中可能含有 /，按编码后的路径匹配
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// 内存图
		api.GET("/movies/count", h.MovieCount)
		api.GET("/movies/:title", h.GetMovie)
		api.GET("/movies/:title/similar", h.SimilarMovies)
		api.GET("/people/:name", h.GetPerson)
		api.GET("/tags/:tag", h.GetTag)
		api.GET("/stats", h.Stats)

		// 数据库目录
		api.GET("/catalog/search", h.CatalogSearch)
		api.GET("/catalog/top", h.CatalogTop)
		api.GET("/catalog/movies/:title", h.CatalogMovie)
	}

	// ==================== 管理接口 ====================
	if h.Config.AdminSecret != "" {
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin(h.Config.AdminSecret))
		{
			admin.POST("/export", h.ExportCatalog)
		}
	}
}
