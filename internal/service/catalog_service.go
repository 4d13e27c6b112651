package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/user/moviegraph/internal/model"
	"github.com/user/moviegraph/internal/repository"
	"github.com/user/moviegraph/internal/utils"
)

// ErrInvalidSearchKind 不支持的搜索类型
var ErrInvalidSearchKind = errors.New("搜索类型只能是 movie、person 或 tag")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogService 数据库目录查询，结果按查询参数缓存
type CatalogService struct {
	query *repository.QueryRepository
	cache *cache.Cache
}

// NewCatalogService ttl 为缓存有效期
func NewCatalogService(query *repository.QueryRepository, ttl time.Duration) *CatalogService {
	return &CatalogService{
		query: query,
		cache: utils.NewTTLCache(ttl),
	}
}

// Search 分页搜索
func (s *CatalogService) Search(ctx context.Context, q, kind string, page, size int) (*model.PagedResult[model.MovieDetail], error) {
	k, ok := model.ParseSearchKind(kind)
	if !ok {
		return nil, ErrInvalidSearchKind
	}
	page, size = normalizePage(page, size)
	key := fmt.Sprintf("search_%s_%s_page_%d_size_%d", k, strings.ToLower(strings.TrimSpace(q)), page, size)

	if v, found := s.cache.Get(key); found {
		return v.(*model.PagedResult[model.MovieDetail]), nil
	}
	res, err := s.query.SearchMovies(ctx, q, k, page, size)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, res)
	return res, nil
}

// TopRated 按评分排行
func (s *CatalogService) TopRated(ctx context.Context, page, size int) (*model.PagedResult[model.MovieDetail], error) {
	page, size = normalizePage(page, size)
	key := fmt.Sprintf("top_page_%d_size_%d", page, size)

	if v, found := s.cache.Get(key); found {
		return v.(*model.PagedResult[model.MovieDetail]), nil
	}
	res, err := s.query.TopRated(ctx, page, size)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, res)
	return res, nil
}

// GetMovie 电影详情，不存在时返回 nil, nil
func (s *CatalogService) GetMovie(ctx context.Context, name string) (*model.MovieDetail, error) {
	key := "movie_" + name
	if v, found := s.cache.Get(key); found {
		return v.(*model.MovieDetail), nil
	}
	m, err := s.query.FindMovie(ctx, name)
	if err != nil || m == nil {
		return m, err
	}
	s.cache.SetDefault(key, m)
	return m, nil
}

// Invalidate 清空全部缓存结果
func (s *CatalogService) Invalidate() {
	s.cache.Flush()
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
