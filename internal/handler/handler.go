package handler

import (
	"github.com/user/moviegraph/internal/config"
	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/service"
)

// Handler HTTP 处理器
type Handler struct {
	Config  *config.Config
	Movies  *service.MovieService
	Catalog *service.CatalogService
	Export  *service.ExportService
	log     *logger.Logger
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, movies *service.MovieService, catalog *service.CatalogService, export *service.ExportService, log *logger.Logger) *Handler {
	return &Handler{
		Config:  cfg,
		Movies:  movies,
		Catalog: catalog,
		Export:  export,
		log:     log,
	}
}
