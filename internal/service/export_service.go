package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/user/moviegraph/internal/graph"
	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/model"
	"github.com/user/moviegraph/internal/repository"
	"github.com/user/moviegraph/internal/similarity"
)

// ErrNotLoaded 图尚未加载完成
var ErrNotLoaded = errors.New("电影数据尚未加载完成")

// ExportReport 导出的行数
type ExportReport struct {
	Movies         int           `json:"movies"`
	Actors         int           `json:"actors"`
	Directors      int           `json:"directors"`
	Tags           int           `json:"tags"`
	MovieActors    int           `json:"movie_actors"`
	MovieDirectors int           `json:"movie_directors"`
	MovieTags      int           `json:"movie_tags"`
	Duration       time.Duration `json:"duration"`
}

// ExportService 把内存图写入数据库
//
// 导出会删除已持久化的相似度，期间暂停相似度查询并在结束后清空目录缓存。
// 同一时间只有一次导出在执行。
type ExportService struct {
	store        *graph.Store
	catalog      *repository.CatalogRepository
	engine       *similarity.Engine
	catalogCache *CatalogService
	log          *logger.Logger

	mu sync.Mutex
}

// NewExportService engine 与 catalogCache 可以为 nil
func NewExportService(store *graph.Store, catalog *repository.CatalogRepository, engine *similarity.Engine, catalogCache *CatalogService, log *logger.Logger) *ExportService {
	return &ExportService{
		store:        store,
		catalog:      catalog,
		engine:       engine,
		catalogCache: catalogCache,
		log:          log,
	}
}

// catalogRows 一次导出的全部行
type catalogRows struct {
	movies         []model.MovieEntry
	actors         []model.ActorEntry
	directors      []model.DirectorEntry
	tags           []model.TagEntry
	movieActors    []model.MovieActor
	movieDirectors []model.MovieDirector
	movieTags      []model.MovieTag
}

// Export 重建数据库结构，先写实体再写关联。未设置的评分写为 0.0
func (s *ExportService) Export(ctx context.Context) (*ExportReport, error) {
	if s.store.State() != graph.StateLoaded {
		return nil, ErrNotLoaded
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	rows := s.collect()

	// 表被删除后，缓存中的结果不再与数据库一致
	if s.engine != nil {
		s.engine.Suspend()
		defer s.engine.Resume()
	}
	if s.catalogCache != nil {
		defer s.catalogCache.Invalidate()
	}

	s.log.Info("[Export] 开始写入数据库",
		"movies", len(rows.movies), "actors", len(rows.actors),
		"directors", len(rows.directors), "tags", len(rows.tags))

	if err := s.catalog.Reset(ctx); err != nil {
		return nil, fmt.Errorf("重建数据库失败: %w", err)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"actors", func() error { return s.catalog.InsertActors(ctx, rows.actors) }},
		{"directors", func() error { return s.catalog.InsertDirectors(ctx, rows.directors) }},
		{"tags", func() error { return s.catalog.InsertTags(ctx, rows.tags) }},
		{"movies", func() error { return s.catalog.InsertMovies(ctx, rows.movies) }},
		{"movie_actors", func() error { return s.catalog.InsertMovieActors(ctx, rows.movieActors) }},
		{"movie_directors", func() error { return s.catalog.InsertMovieDirectors(ctx, rows.movieDirectors) }},
		{"movie_tags", func() error { return s.catalog.InsertMovieTags(ctx, rows.movieTags) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return nil, fmt.Errorf("写入 %s 失败: %w", step.name, err)
		}
	}

	report := &ExportReport{
		Movies:         len(rows.movies),
		Actors:         len(rows.actors),
		Directors:      len(rows.directors),
		Tags:           len(rows.tags),
		MovieActors:    len(rows.movieActors),
		MovieDirectors: len(rows.movieDirectors),
		MovieTags:      len(rows.movieTags),
		Duration:       time.Since(start),
	}
	s.log.Info("[Export] 写入完成", "movies", report.Movies, "duration", report.Duration)
	return report, nil
}

func (s *ExportService) collect() *catalogRows {
	rows := &catalogRows{}
	actors := make(map[string]struct{})
	directors := make(map[string]struct{})
	tags := make(map[string]struct{})

	s.store.RangeMovies(func(m *graph.Movie) bool {
		snap := m.Snapshot()
		// 未设置评分时 Rating 为零值
		rows.movies = append(rows.movies, model.MovieEntry{Name: snap.Title, Rating: snap.Rating})
		for _, a := range snap.Actors {
			actors[a] = struct{}{}
			rows.movieActors = append(rows.movieActors, model.MovieActor{MovieName: snap.Title, ActorName: a})
		}
		for _, d := range snap.Production {
			directors[d] = struct{}{}
			rows.movieDirectors = append(rows.movieDirectors, model.MovieDirector{MovieName: snap.Title, DirectorName: d})
		}
		for _, t := range snap.Tags {
			tags[t] = struct{}{}
			rows.movieTags = append(rows.movieTags, model.MovieTag{MovieName: snap.Title, TagName: t})
		}
		return true
	})

	for _, name := range sortedNames(actors) {
		rows.actors = append(rows.actors, model.ActorEntry{Name: name})
	}
	for _, name := range sortedNames(directors) {
		rows.directors = append(rows.directors, model.DirectorEntry{Name: name})
	}
	for _, name := range sortedNames(tags) {
		rows.tags = append(rows.tags, model.TagEntry{Name: name})
	}
	sort.Slice(rows.movies, func(i, j int) bool { return rows.movies[i].Name < rows.movies[j].Name })
	return rows
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
