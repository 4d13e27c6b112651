package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/user/moviegraph/internal/service"
	"github.com/user/moviegraph/internal/similarity"
	"github.com/user/moviegraph/internal/utils"
)

// Health 存活检查，附带加载状态
func (h *Handler) Health(c *gin.Context) {
	utils.Success(c, gin.H{
		"status": "ok",
		"state":  h.Movies.State().String(),
	})
}

// MovieCount GET /api/movies/count
func (h *Handler) MovieCount(c *gin.Context) {
	utils.Success(c, gin.H{"count": h.Movies.MovieCount()})
}

// Stats GET /api/stats
func (h *Handler) Stats(c *gin.Context) {
	utils.Success(c, h.Movies.Stats())
}

// GetMovie GET /api/movies/:title
func (h *Handler) GetMovie(c *gin.Context) {
	m, ok := h.Movies.GetMovie(c.Param("title"))
	if !ok {
		utils.NotFound(c, "电影不存在")
		return
	}
	utils.Success(c, m)
}

// SimilarMovies GET /api/movies/:title/similar
// 加载或导出期间返回 503
func (h *Handler) SimilarMovies(c *gin.Context) {
	title := c.Param("title")
	res, found, err := h.Movies.GetSimilarMovies(c.Request.Context(), title)
	switch {
	case errors.Is(err, service.ErrNotLoaded):
		utils.ServiceUnavailable(c, "数据加载中")
		return
	case errors.Is(err, similarity.ErrSuspended):
		utils.ServiceUnavailable(c, "数据写入中，请稍后重试")
		return
	case err != nil:
		h.log.Error("[API] 相似电影查询失败", "title", title, "error", err)
		utils.InternalServerError(c, "")
		return
	}
	if !found {
		utils.NotFound(c, "电影不存在")
		return
	}
	utils.Success(c, gin.H{"title": title, "items": res})
}

// GetPerson GET /api/people/:name
func (h *Handler) GetPerson(c *gin.Context) {
	movies, ok := h.Movies.GetPerson(c.Param("name"))
	if !ok {
		utils.NotFound(c, "人物不存在")
		return
	}
	utils.Success(c, gin.H{"name": c.Param("name"), "movies": movies})
}

// GetTag GET /api/tags/:tag
func (h *Handler) GetTag(c *gin.Context) {
	movies, ok := h.Movies.GetTag(c.Param("tag"))
	if !ok {
		utils.NotFound(c, "标签不存在")
		return
	}
	utils.Success(c, gin.H{"tag": c.Param("tag"), "movies": movies})
}

type catalogSearchQuery struct {
	Q    string `form:"q" binding:"required"`
	Type string `form:"type"`
	Page int    `form:"page" binding:"omitempty,min=1"`
	Size int    `form:"size" binding:"omitempty,min=1"`
}

type pageQuery struct {
	Page int `form:"page" binding:"omitempty,min=1"`
	Size int `form:"size" binding:"omitempty,min=1"`
}

// CatalogSearch GET /api/catalog/search?q=&type=movie|person|tag&page=&size=
func (h *Handler) CatalogSearch(c *gin.Context) {
	var q catalogSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, "参数错误")
		return
	}
	res, err := h.Catalog.Search(c.Request.Context(), q.Q, q.Type, q.Page, q.Size)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSearchKind) {
			utils.BadRequest(c, err.Error())
			return
		}
		h.log.Error("[API] 目录搜索失败", "q", q.Q, "error", err)
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, res)
}

// CatalogTop GET /api/catalog/top?page=&size=
func (h *Handler) CatalogTop(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, "参数错误")
		return
	}
	res, err := h.Catalog.TopRated(c.Request.Context(), q.Page, q.Size)
	if err != nil {
		h.log.Error("[API] 评分排行查询失败", "error", err)
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, res)
}

// CatalogMovie GET /api/catalog/movies/:title
func (h *Handler) CatalogMovie(c *gin.Context) {
	m, err := h.Catalog.GetMovie(c.Request.Context(), c.Param("title"))
	if err != nil {
		h.log.Error("[API] 电影详情查询失败", "error", err)
		utils.InternalServerError(c, "")
		return
	}
	if m == nil {
		utils.NotFound(c, "电影不存在")
		return
	}
	utils.Success(c, m)
}
