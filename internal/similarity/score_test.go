package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/moviegraph/internal/graph"
)

func set(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[s] = struct{}{}
	}
	return out
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard(set(), set()))
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.Equal(t, 0.0, Jaccard(set("a"), set()))
	assert.Equal(t, 1.0, Jaccard(set("a", "b"), set("b", "a")))
	assert.Equal(t, 0.25, Jaccard(set("A", "B"), set("A", "C", "D")))
	assert.Equal(t, 0.5, Jaccard(set("sci-fi"), set("sci-fi", "thriller")))
}

// inceptionAndTenet 两部电影的示例数据
func inceptionAndTenet(t *testing.T) (*graph.Store, *graph.Movie, *graph.Movie) {
	t.Helper()
	s := graph.NewStore()
	inception, _ := s.AddMovie("Inception")
	s.LinkActor(inception, "A")
	s.LinkActor(inception, "B")
	s.LinkTag(inception, "sci-fi")

	tenet, _ := s.AddMovie("Tenet")
	s.LinkActor(tenet, "A")
	s.LinkActor(tenet, "C")
	s.LinkProduction(tenet, "D")
	s.LinkTag(tenet, "sci-fi")
	s.LinkTag(tenet, "thriller")
	tenet.SetRating(8.0)
	return s, inception, tenet
}

func TestScore_InceptionTenet(t *testing.T) {
	_, inception, tenet := inceptionAndTenet(t)
	assert.InDelta(t, 0.5875, Score(inception, tenet), 1e-12)
}

func TestScore_Asymmetric(t *testing.T) {
	_, inception, tenet := inceptionAndTenet(t)
	// Inception 未设置评分，反方向只剩重合度部分
	assert.InDelta(t, 0.1875, Score(tenet, inception), 1e-12)
	assert.NotEqual(t, Score(inception, tenet), Score(tenet, inception))
}

func TestScore_Bounds(t *testing.T) {
	s := graph.NewStore()
	a, _ := s.AddMovie("a")
	b, _ := s.AddMovie("b")
	require.Equal(t, 0.0, Score(a, b))

	s.LinkActor(a, "x")
	s.LinkActor(b, "x")
	s.LinkTag(a, "t")
	s.LinkTag(b, "t")
	b.SetRating(10)

	const maxRating = 10.0
	got := Score(a, b)
	assert.InDelta(t, 0.5+maxRating/20, got, 1e-12)
	assert.LessOrEqual(t, got, 0.5+maxRating/20)
	assert.GreaterOrEqual(t, got, 0.0)
}
