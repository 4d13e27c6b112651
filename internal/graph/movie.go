package graph

import (
	"sort"
	"sync"

	"github.com/user/moviegraph/internal/model"
)

// Movie 图中的电影节点，评分与关联集合由节点自身的锁保护
type Movie struct {
	title string

	mu         sync.RWMutex
	rating     float64
	rated      bool
	actors     map[string]struct{}
	production map[string]struct{}
	tags       map[string]struct{}
}

func newMovie(title string) *Movie {
	return &Movie{
		title:      title,
		actors:     make(map[string]struct{}),
		production: make(map[string]struct{}),
		tags:       make(map[string]struct{}),
	}
}

func (m *Movie) Title() string {
	return m.title
}

// Rating 未设置评分时返回 (0, false)
func (m *Movie) Rating() (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rating, m.rated
}

// SetRating 评分以最后一次写入为准
func (m *Movie) SetRating(rating float64) {
	m.mu.Lock()
	m.rating = rating
	m.rated = true
	m.mu.Unlock()
}

func (m *Movie) addActor(name string) bool {
	return m.add(m.actors, name)
}

func (m *Movie) addProduction(name string) bool {
	return m.add(m.production, name)
}

func (m *Movie) addTag(tag string) bool {
	return m.add(m.tags, tag)
}

func (m *Movie) add(set map[string]struct{}, v string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := set[v]; ok {
		return false
	}
	set[v] = struct{}{}
	return true
}

func (m *Movie) HasActor(name string) bool {
	return m.has(m.actors, name)
}

func (m *Movie) HasProduction(name string) bool {
	return m.has(m.production, name)
}

func (m *Movie) HasTag(tag string) bool {
	return m.has(m.tags, tag)
}

func (m *Movie) has(set map[string]struct{}, v string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := set[v]
	return ok
}

// People 演员与导演/制片人的并集
func (m *Movie) People() map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]struct{}, len(m.actors)+len(m.production))
	for k := range m.actors {
		out[k] = struct{}{}
	}
	for k := range m.production {
		out[k] = struct{}{}
	}
	return out
}

// Tags 标签集合的副本
func (m *Movie) Tags() map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]struct{}, len(m.tags))
	for k := range m.tags {
		out[k] = struct{}{}
	}
	return out
}

// Actors 按名称排序
func (m *Movie) Actors() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.actors)
}

// Production 按名称排序
func (m *Movie) Production() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.production)
}

// TagList 按名称排序
func (m *Movie) TagList() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.tags)
}

// Snapshot 生成只读快照
func (m *Movie) Snapshot() model.Movie {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.Movie{
		Title:      m.title,
		Rating:     m.rating,
		Rated:      m.rated,
		Actors:     sortedKeys(m.actors),
		Production: sortedKeys(m.production),
		Tags:       sortedKeys(m.tags),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// movieSet 反向索引桶（人物或标签 -> 电影集合），每个桶独立加锁
type movieSet struct {
	mu     sync.RWMutex
	movies map[string]*Movie
}

func newMovieSet() *movieSet {
	return &movieSet{movies: make(map[string]*Movie)}
}

func (s *movieSet) add(m *Movie) {
	s.mu.Lock()
	s.movies[m.title] = m
	s.mu.Unlock()
}

// list 按标题排序
func (s *movieSet) list() []*Movie {
	s.mu.RLock()
	out := make([]*Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].title < out[j].title })
	return out
}
