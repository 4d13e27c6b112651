package graph

import (
	"sync/atomic"

	"github.com/user/moviegraph/internal/model"
	"github.com/user/moviegraph/internal/utils"
)

// State 导入状态
type State int32

const (
	StateEmpty State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Store 内存图：电影、人物反向索引、标签反向索引
//
// 三张表均为分段加锁的 map，电影节点和每个反向索引桶各自持有锁，
// 不同文件的导入 worker 写入互不相关的实体时不会争用。
type Store struct {
	movies *utils.ShardMap[*Movie]
	people *utils.ShardMap[*movieSet]
	tags   *utils.ShardMap[*movieSet]
	state  atomic.Int32
}

// NewStore 创建空图
func NewStore() *Store {
	return &Store{
		movies: utils.NewShardMap[*Movie](utils.DefaultShards),
		people: utils.NewShardMap[*movieSet](utils.DefaultShards),
		tags:   utils.NewShardMap[*movieSet](utils.DefaultShards),
	}
}

func (s *Store) State() State {
	return State(s.state.Load())
}

// BeginLoad 仅当图为空时进入 Loading，返回是否成功
func (s *Store) BeginLoad() bool {
	if s.movies.Len() > 0 {
		return false
	}
	return s.state.CompareAndSwap(int32(StateEmpty), int32(StateLoading))
}

// FinishLoad Loading -> Loaded
func (s *Store) FinishLoad() {
	s.state.CompareAndSwap(int32(StateLoading), int32(StateLoaded))
}

// Reset 清空所有数据回到 Empty，中途失败的导入必须先 Reset 再重新开始
func (s *Store) Reset() {
	s.movies.Clear()
	s.people.Clear()
	s.tags.Clear()
	s.state.Store(int32(StateEmpty))
}

// AddMovie 标题不存在时创建电影，created=false 表示已有同名电影（先到先得）
func (s *Store) AddMovie(title string) (movie *Movie, created bool) {
	m, loaded := s.movies.LoadOrCreate(title, func() *Movie { return newMovie(title) })
	return m, !loaded
}

// Movie 按标题查找电影节点
func (s *Store) Movie(title string) (*Movie, bool) {
	return s.movies.Get(title)
}

// LinkActor 同时写入电影的演员集合与人物反向索引
func (s *Store) LinkActor(m *Movie, name string) {
	m.addActor(name)
	s.bucket(s.people, name).add(m)
}

// LinkProduction 同时写入电影的导演/制片集合与人物反向索引
func (s *Store) LinkProduction(m *Movie, name string) {
	m.addProduction(name)
	s.bucket(s.people, name).add(m)
}

// LinkTag 同时写入电影的标签集合与标签反向索引
func (s *Store) LinkTag(m *Movie, tag string) {
	m.addTag(tag)
	s.bucket(s.tags, tag).add(m)
}

func (s *Store) bucket(index *utils.ShardMap[*movieSet], key string) *movieSet {
	set, _ := index.LoadOrCreate(key, newMovieSet)
	return set
}

// Person 人物参与的电影（演员或导演/制片），按标题排序
func (s *Store) Person(name string) ([]*Movie, bool) {
	set, ok := s.people.Get(name)
	if !ok {
		return nil, false
	}
	return set.list(), true
}

// Tag 带有该标签的电影，按标题排序
func (s *Store) Tag(tag string) ([]*Movie, bool) {
	set, ok := s.tags.Get(tag)
	if !ok {
		return nil, false
	}
	return set.list(), true
}

func (s *Store) MovieCount() int {
	return s.movies.Len()
}

func (s *Store) PersonCount() int {
	return s.people.Len()
}

func (s *Store) TagCount() int {
	return s.tags.Len()
}

// Stats 实体数量
func (s *Store) Stats() model.Stats {
	return model.Stats{
		Movies: s.MovieCount(),
		People: s.PersonCount(),
		Tags:   s.TagCount(),
	}
}

// RangeMovies 遍历所有电影，顺序不固定
func (s *Store) RangeMovies(fn func(m *Movie) bool) {
	s.movies.Range(func(_ string, m *Movie) bool {
		return fn(m)
	})
}
