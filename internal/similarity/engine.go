package similarity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/user/moviegraph/internal/graph"
	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/metrics"
	"github.com/user/moviegraph/internal/model"
	"github.com/user/moviegraph/internal/utils"
)

// DefaultTopK 默认返回的相似电影数量
const DefaultTopK = 10

// ErrSuspended 持久化的边正在重建，暂不接受查询
var ErrSuspended = errors.New("相似度数据正在重建")

// EdgeStore 相似度边的持久化接口
type EdgeStore interface {
	// FindBySource 按分数降序返回 source 的全部边，没有时返回空切片
	FindBySource(ctx context.Context, source string) ([]model.SimilarityEdge, error)
	// SaveEdges 以 (source, target) 为键写入
	SaveEdges(ctx context.Context, edges []model.SimilarityEdge) error
}

// Engine 相似电影查询
//
// 查询顺序：进程内 LRU -> 已持久化的边 -> 现场计算并持久化。
// 同一部电影的并发首次查询通过 singleflight 合并，持久化只发生一次。
// 图变化后缓存和已持久化的边不会更新；只有 Suspend 会清空缓存。
type Engine struct {
	store *graph.Store
	edges EdgeStore
	memo  *utils.LRUCache[[]model.SimilarMovie]
	sf    singleflight.Group
	topK  int
	log   *logger.Logger

	// 查询持有读锁，Suspend 持有写锁
	gate sync.RWMutex
}

func NewEngine(store *graph.Store, edges EdgeStore, topK, cacheSize int, log *logger.Logger) (*Engine, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	memo, err := utils.NewLRUCache[[]model.SimilarMovie](cacheSize, 0)
	if err != nil {
		return nil, fmt.Errorf("创建相似度缓存失败: %w", err)
	}
	return &Engine{
		store: store,
		edges: edges,
		memo:  memo,
		topK:  topK,
		log:   log,
	}, nil
}

func (e *Engine) TopK() int {
	return e.topK
}

// Suspend 等待进行中的查询结束后拒绝新查询，并清空缓存。
// 数据库中的边被删除前调用，之后必须调用 Resume。
func (e *Engine) Suspend() {
	e.gate.Lock()
	e.memo.Clear()
}

func (e *Engine) Resume() {
	e.gate.Unlock()
}

// FindSimilar 直接计算 title 的前 k 部相似电影，不读写缓存和持久化
func (e *Engine) FindSimilar(title string, k int) ([]model.SimilarMovie, bool) {
	source, ok := e.store.Movie(title)
	if !ok {
		return nil, false
	}
	return e.findSimilar(source, k), true
}

func (e *Engine) findSimilar(source *graph.Movie, k int) []model.SimilarMovie {
	start := time.Now()
	defer func() { metrics.SimilarityCompute.Observe(time.Since(start).Seconds()) }()

	people := source.People()
	tags := source.Tags()

	type scored struct {
		movie *graph.Movie
		score float64
	}
	var results []scored
	for _, c := range e.candidates(source) {
		results = append(results, scored{movie: c, score: scoreSets(people, tags, c)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].movie.Title() < results[j].movie.Title()
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}

	out := make([]model.SimilarMovie, 0, len(results))
	for _, r := range results {
		out = append(out, model.SimilarMovie{Movie: r.movie.Snapshot(), Score: r.score})
	}
	return out
}

// candidates 与 source 同角色共享人物，或共享标签的电影，不含 source 自身
func (e *Engine) candidates(source *graph.Movie) []*graph.Movie {
	seen := make(map[string]*graph.Movie)
	add := func(m *graph.Movie) {
		if m.Title() != source.Title() {
			seen[m.Title()] = m
		}
	}

	for _, name := range source.Actors() {
		movies, _ := e.store.Person(name)
		for _, m := range movies {
			if m.HasActor(name) {
				add(m)
			}
		}
	}
	for _, name := range source.Production() {
		movies, _ := e.store.Person(name)
		for _, m := range movies {
			if m.HasProduction(name) {
				add(m)
			}
		}
	}
	for _, tag := range source.TagList() {
		movies, _ := e.store.Tag(tag)
		for _, m := range movies {
			add(m)
		}
	}

	out := make([]*graph.Movie, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	return out
}

// GetSimilarMovies 返回 title 的相似电影，电影不存在时 found 为 false。
// Suspend 期间返回 ErrSuspended。
func (e *Engine) GetSimilarMovies(ctx context.Context, title string) ([]model.SimilarMovie, bool, error) {
	if !e.gate.TryRLock() {
		return nil, true, ErrSuspended
	}
	defer e.gate.RUnlock()

	if cached, ok := e.memo.Get(title); ok {
		metrics.SimilarityRequests.WithLabelValues("memory").Inc()
		return clone(cached), true, nil
	}

	source, ok := e.store.Movie(title)
	if !ok {
		metrics.SimilarityRequests.WithLabelValues("missing").Inc()
		return nil, false, nil
	}

	v, err, _ := e.sf.Do(title, func() (interface{}, error) {
		// 排队期间可能已被其他调用写入
		if cached, ok := e.memo.Get(title); ok {
			metrics.SimilarityRequests.WithLabelValues("memory").Inc()
			return cached, nil
		}

		stored, err := e.edges.FindBySource(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("读取相似度失败: %w", err)
		}
		if len(stored) > 0 {
			metrics.SimilarityRequests.WithLabelValues("store").Inc()
			res := e.fromEdges(stored)
			e.memo.Set(title, res)
			return res, nil
		}

		res := e.findSimilar(source, e.topK)
		if len(res) > 0 {
			if err := e.edges.SaveEdges(ctx, toEdges(title, res)); err != nil {
				return nil, fmt.Errorf("保存相似度失败: %w", err)
			}
		}
		metrics.SimilarityRequests.WithLabelValues("computed").Inc()
		e.log.Debug("[Similarity] 计算完成", "title", title, "results", len(res))
		e.memo.Set(title, res)
		return res, nil
	})
	if err != nil {
		e.log.Warn("[Similarity] 查询失败", "title", title, "error", err)
		return nil, true, err
	}
	return clone(v.([]model.SimilarMovie)), true, nil
}

// fromEdges 目标电影不在图中时只保留标题
func (e *Engine) fromEdges(edges []model.SimilarityEdge) []model.SimilarMovie {
	out := make([]model.SimilarMovie, 0, len(edges))
	for _, edge := range edges {
		movie := model.Movie{Title: edge.TargetTitle}
		if m, ok := e.store.Movie(edge.TargetTitle); ok {
			movie = m.Snapshot()
		}
		out = append(out, model.SimilarMovie{Movie: movie, Score: edge.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Movie.Title < out[j].Movie.Title
	})
	if len(out) > e.topK {
		out = out[:e.topK]
	}
	return out
}

func toEdges(source string, res []model.SimilarMovie) []model.SimilarityEdge {
	edges := make([]model.SimilarityEdge, 0, len(res))
	for _, r := range res {
		edges = append(edges, model.SimilarityEdge{
			SourceTitle: source,
			TargetTitle: r.Movie.Title,
			Score:       r.Score,
		})
	}
	return edges
}

func clone(res []model.SimilarMovie) []model.SimilarMovie {
	out := make([]model.SimilarMovie, len(res))
	copy(out, res)
	return out
}
