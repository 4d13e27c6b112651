package similarity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/moviegraph/internal/graph"
	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/model"
)

// memoryEdges 记录写入次数的内存实现
type memoryEdges struct {
	mu      sync.Mutex
	edges   map[string][]model.SimilarityEdge
	writes  atomic.Int32
	reads   atomic.Int32
	delay   time.Duration
	saveErr error
}

func newMemoryEdges() *memoryEdges {
	return &memoryEdges{edges: make(map[string][]model.SimilarityEdge)}
}

func (m *memoryEdges) FindBySource(_ context.Context, source string) ([]model.SimilarityEdge, error) {
	m.reads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.SimilarityEdge(nil), m.edges[source]...), nil
}

func (m *memoryEdges) SaveEdges(_ context.Context, edges []model.SimilarityEdge) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.writes.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		m.edges[e.SourceTitle] = append(m.edges[e.SourceTitle], e)
	}
	return nil
}

func newTestEngine(t *testing.T, s *graph.Store, edges EdgeStore) *Engine {
	t.Helper()
	e, err := NewEngine(s, edges, DefaultTopK, 16, logger.Nop())
	require.NoError(t, err)
	return e
}

func TestEngine_FindSimilar(t *testing.T) {
	s, _, _ := inceptionAndTenet(t)
	e := newTestEngine(t, s, newMemoryEdges())

	res, ok := e.FindSimilar("Inception", 10)
	require.True(t, ok)
	require.Len(t, res, 1)
	assert.Equal(t, "Tenet", res[0].Movie.Title)
	assert.InDelta(t, 0.5875, res[0].Score, 1e-12)
	assert.Equal(t, []string{"A", "C"}, res[0].Movie.Actors)

	_, ok = e.FindSimilar("Memento", 10)
	assert.False(t, ok)
}

func TestEngine_TieBreakByTitle(t *testing.T) {
	s := graph.NewStore()
	src, _ := s.AddMovie("Source")
	s.LinkTag(src, "noir")
	for _, title := range []string{"Charlie", "Alpha", "Bravo"} {
		m, _ := s.AddMovie(title)
		s.LinkTag(m, "noir")
	}
	e := newTestEngine(t, s, newMemoryEdges())

	res, _ := e.FindSimilar("Source", 10)
	require.Len(t, res, 3)
	assert.Equal(t, "Alpha", res[0].Movie.Title)
	assert.Equal(t, "Bravo", res[1].Movie.Title)
	assert.Equal(t, "Charlie", res[2].Movie.Title)

	top, _ := e.FindSimilar("Source", 2)
	assert.Len(t, top, 2)
}

func TestEngine_CandidatesShareRole(t *testing.T) {
	s := graph.NewStore()
	src, _ := s.AddMovie("Source")
	s.LinkActor(src, "P")
	other, _ := s.AddMovie("Directed")
	s.LinkProduction(other, "P")
	costar, _ := s.AddMovie("Costar")
	s.LinkActor(costar, "P")
	e := newTestEngine(t, s, newMemoryEdges())

	res, _ := e.FindSimilar("Source", 10)
	require.Len(t, res, 1)
	assert.Equal(t, "Costar", res[0].Movie.Title)
}

func TestEngine_GetSimilarMovies_PersistsOnce(t *testing.T) {
	s, _, _ := inceptionAndTenet(t)
	edges := newMemoryEdges()
	e := newTestEngine(t, s, edges)
	ctx := context.Background()

	first, found, err := e.GetSimilarMovies(ctx, "Inception")
	require.NoError(t, err)
	require.True(t, found)
	second, _, err := e.GetSimilarMovies(ctx, "Inception")
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]))
	}
	assert.Equal(t, int32(1), edges.writes.Load())

	stored, _ := edges.FindBySource(ctx, "Inception")
	require.Len(t, stored, 1)
	assert.Equal(t, [2]string{"Inception", "Tenet"}, stored[0].Key())
}

func TestEngine_GetSimilarMovies_Concurrent(t *testing.T) {
	s, _, _ := inceptionAndTenet(t)
	edges := newMemoryEdges()
	edges.delay = 20 * time.Millisecond
	e := newTestEngine(t, s, edges)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, found, err := e.GetSimilarMovies(context.Background(), "Inception")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Len(t, res, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), edges.writes.Load())
}

func TestEngine_GetSimilarMovies_UsesStoredEdges(t *testing.T) {
	s, _, _ := inceptionAndTenet(t)
	edges := newMemoryEdges()
	edges.edges["Inception"] = []model.SimilarityEdge{
		{SourceTitle: "Inception", TargetTitle: "Tenet", Score: 0.1},
		{SourceTitle: "Inception", TargetTitle: "Gone", Score: 0.3},
	}
	e := newTestEngine(t, s, edges)

	res, found, err := e.GetSimilarMovies(context.Background(), "Inception")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, res, 2)
	assert.Equal(t, "Gone", res[0].Movie.Title)
	assert.Equal(t, "Tenet", res[1].Movie.Title)
	assert.Equal(t, 0.1, res[1].Score)
	assert.Equal(t, []string{"A", "C"}, res[1].Movie.Actors)
	assert.Equal(t, int32(0), edges.writes.Load())
}

func TestEngine_GetSimilarMovies_NotFound(t *testing.T) {
	edges := newMemoryEdges()
	e := newTestEngine(t, graph.NewStore(), edges)

	res, found, err := e.GetSimilarMovies(context.Background(), "Nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, res)
	assert.Equal(t, int32(0), edges.reads.Load())
}

func TestEngine_GetSimilarMovies_NoCandidates(t *testing.T) {
	s := graph.NewStore()
	s.AddMovie("Alone")
	edges := newMemoryEdges()
	e := newTestEngine(t, s, edges)

	res, found, err := e.GetSimilarMovies(context.Background(), "Alone")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, res)
	assert.Empty(t, res)
	assert.Equal(t, int32(0), edges.writes.Load())
}

func TestEngine_GetSimilarMovies_SaveError(t *testing.T) {
	s, _, _ := inceptionAndTenet(t)
	edges := newMemoryEdges()
	edges.saveErr = errors.New("db down")
	e := newTestEngine(t, s, edges)

	_, found, err := e.GetSimilarMovies(context.Background(), "Inception")
	require.Error(t, err)
	assert.True(t, found)

	// 失败不写入缓存，恢复后重新计算
	edges.saveErr = nil
	res, _, err := e.GetSimilarMovies(context.Background(), "Inception")
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, int32(1), edges.writes.Load())
}

func TestEngine_SuspendClearsMemo(t *testing.T) {
	s, _, _ := inceptionAndTenet(t)
	edges := newMemoryEdges()
	e := newTestEngine(t, s, edges)
	ctx := context.Background()

	_, _, err := e.GetSimilarMovies(ctx, "Inception")
	require.NoError(t, err)
	require.Equal(t, int32(1), edges.writes.Load())

	e.Suspend()
	_, _, err = e.GetSimilarMovies(ctx, "Inception")
	assert.ErrorIs(t, err, ErrSuspended)

	// 数据库中的边在暂停期间被清空
	edges.mu.Lock()
	edges.edges = make(map[string][]model.SimilarityEdge)
	edges.mu.Unlock()
	e.Resume()

	res, found, err := e.GetSimilarMovies(ctx, "Inception")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, res, 1)
	assert.Equal(t, int32(2), edges.writes.Load(), "cleared edges are written again")
	stored, _ := edges.FindBySource(ctx, "Inception")
	assert.Len(t, stored, 1)
}
