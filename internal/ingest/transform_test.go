package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/moviegraph/internal/graph"
)

func newTestTransformer() *transformer {
	return &transformer{store: graph.NewStore(), resolver: NewResolver()}
}

func TestTransformer_TitleWhitelist(t *testing.T) {
	cases := []struct {
		region, language string
		want             outcome
	}{
		{"US", "xx", outcomeAccepted},
		{"GB", "", outcomeAccepted},
		{"RU", "", outcomeAccepted},
		{"AU", "", outcomeAccepted},
		{"EU", "", outcomeAccepted},
		{"FR", "en", outcomeAccepted},
		{"JP", "ru", outcomeAccepted},
		{"FR", "fr", outcomeFiltered},
		{"us", "EN", outcomeFiltered},
	}
	for i, c := range cases {
		tr := newTestTransformer()
		got := tr.titles([]string{"tt1", "1", "Movie", c.region, c.language})
		assert.Equal(t, c.want, got, "case %d: %s/%s", i, c.region, c.language)
	}
}

func TestTransformer_TitleIDBoundToCreatedMovie(t *testing.T) {
	tr := newTestTransformer()

	assert.Equal(t, outcomeAccepted, tr.titles([]string{"tt1", "1", "Heat", "US", ""}))
	assert.Equal(t, outcomeDuplicate, tr.titles([]string{"tt2", "1", "Heat", "US", ""}))

	_, ok := tr.resolver.MovieTitle("tt2")
	assert.False(t, ok)

	// tt2 的下一条记录仍可以创建自己的电影
	assert.Equal(t, outcomeAccepted, tr.titles([]string{"tt2", "2", "Heat (1972)", "US", ""}))
	title, ok := tr.resolver.MovieTitle("tt2")
	assert.True(t, ok)
	assert.Equal(t, "Heat (1972)", title)
}

func TestTransformer_RatingsLastWriteWins(t *testing.T) {
	tr := newTestTransformer()
	tr.titles([]string{"tt1", "1", "Heat", "US", ""})

	assert.Equal(t, outcomeAccepted, tr.ratings([]string{"tt1", "7.1"}))
	assert.Equal(t, outcomeAccepted, tr.ratings([]string{"tt1", " 8.3 "}))
	assert.Equal(t, outcomeMalformed, tr.ratings([]string{"tt1", "\\N"}))

	m, _ := tr.store.Movie("Heat")
	rating, ok := m.Rating()
	assert.True(t, ok)
	assert.Equal(t, 8.3, rating)
}

func TestTransformer_RoleCategories(t *testing.T) {
	tr := newTestTransformer()
	tr.titles([]string{"tt1", "1", "Heat", "US", ""})
	tr.names([]string{"nm1", "Michael Mann"})
	tr.names([]string{"nm2", "Al Pacino"})
	tr.names([]string{"nm3", "Art Linson"})

	assert.Equal(t, outcomeAccepted, tr.roles([]string{"tt1", "1", "nm1", "director"}))
	assert.Equal(t, outcomeAccepted, tr.roles([]string{"tt1", "2", "nm2", "actor"}))
	assert.Equal(t, outcomeAccepted, tr.roles([]string{"tt1", "3", "nm3", "producer"}))
	assert.Equal(t, outcomeFiltered, tr.roles([]string{"tt1", "4", "nm1", "writer"}))
	assert.Equal(t, outcomeUnresolved, tr.roles([]string{"tt1", "5", "nm404", "actress"}))

	m, _ := tr.store.Movie("Heat")
	assert.Equal(t, []string{"Al Pacino"}, m.Actors())
	assert.Equal(t, []string{"Art Linson", "Michael Mann"}, m.Production())
}

func TestTransformer_TagScores(t *testing.T) {
	tr := newTestTransformer()
	tr.titles([]string{"tt0113277", "1", "Heat", "US", ""})
	tr.crossLinks([]string{"6", "0113277"})
	tr.tagCodes([]string{"1", "heist"})

	assert.Equal(t, outcomeFiltered, tr.tagScores([]string{"6", "1", "0.5"}))
	assert.Equal(t, outcomeAccepted, tr.tagScores([]string{"6", "1", "0.51"}))
	assert.Equal(t, outcomeAccepted, tr.tagScores([]string{"006", "1", "0.9"}))
	assert.Equal(t, outcomeUnresolved, tr.tagScores([]string{"7", "1", "0.9"}))
	assert.Equal(t, outcomeMalformed, tr.tagScores([]string{"six", "1", "0.9"}))

	movies, ok := tr.store.Tag("heist")
	assert.True(t, ok)
	assert.Len(t, movies, 1)
}
