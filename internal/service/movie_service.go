package service

import (
	"context"

	"github.com/user/moviegraph/internal/graph"
	"github.com/user/moviegraph/internal/model"
	"github.com/user/moviegraph/internal/similarity"
)

// MovieService 内存图上的查询
type MovieService struct {
	store  *graph.Store
	engine *similarity.Engine
}

// NewMovieService 创建查询服务
func NewMovieService(store *graph.Store, engine *similarity.Engine) *MovieService {
	return &MovieService{store: store, engine: engine}
}

// State 当前加载状态
func (s *MovieService) State() graph.State {
	return s.store.State()
}

// GetMovie 精确匹配标题
func (s *MovieService) GetMovie(title string) (*model.Movie, bool) {
	m, ok := s.store.Movie(title)
	if !ok {
		return nil, false
	}
	snap := m.Snapshot()
	return &snap, true
}

// GetPerson 人物参与的全部电影（演员或导演/制片人），按标题排序
func (s *MovieService) GetPerson(name string) ([]model.Movie, bool) {
	movies, ok := s.store.Person(name)
	if !ok {
		return nil, false
	}
	return snapshots(movies), true
}

// GetTag 带有该标签的全部电影，按标题排序
func (s *MovieService) GetTag(tag string) ([]model.Movie, bool) {
	movies, ok := s.store.Tag(tag)
	if !ok {
		return nil, false
	}
	return snapshots(movies), true
}

func (s *MovieService) MovieCount() int {
	return s.store.MovieCount()
}

func (s *MovieService) PersonCount() int {
	return s.store.PersonCount()
}

func (s *MovieService) TagCount() int {
	return s.store.TagCount()
}

func (s *MovieService) Stats() model.Stats {
	return s.store.Stats()
}

// GetSimilarMovies 相似电影，按分数降序。
// 加载完成前返回 ErrNotLoaded，避免把不完整的结果写入数据库
func (s *MovieService) GetSimilarMovies(ctx context.Context, title string) ([]model.SimilarMovie, bool, error) {
	if s.store.State() != graph.StateLoaded {
		return nil, false, ErrNotLoaded
	}
	return s.engine.GetSimilarMovies(ctx, title)
}

func snapshots(movies []*graph.Movie) []model.Movie {
	out := make([]model.Movie, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.Snapshot())
	}
	return out
}
