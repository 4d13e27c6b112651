package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/user/moviegraph/internal/config"
	"github.com/user/moviegraph/internal/graph"
	"github.com/user/moviegraph/internal/handler"
	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/middleware"
	"github.com/user/moviegraph/internal/repository"
	"github.com/user/moviegraph/internal/router"
	"github.com/user/moviegraph/internal/service"
	"github.com/user/moviegraph/internal/similarity"
)

const testSecret = "0123456789abcdef0123"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

type testServer struct {
	engine *gin.Engine
	store  *graph.Store
	repos  *repository.Repositories
}

func newTestServer(t *testing.T, loaded bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))
	repos := repository.NewRepositories(db, repository.SinkOptions{
		BatchSize: 100,
		Retry:     repository.RetryPolicy{MaxAttempts: 1},
	}, logger.Nop())

	store := graph.NewStore()
	require.True(t, store.BeginLoad())
	inception, _ := store.AddMovie("Inception")
	store.LinkActor(inception, "A")
	store.LinkActor(inception, "B")
	store.LinkTag(inception, "sci-fi")
	tenet, _ := store.AddMovie("Tenet")
	store.LinkActor(tenet, "A")
	store.LinkActor(tenet, "C")
	store.LinkProduction(tenet, "D")
	store.LinkTag(tenet, "sci-fi")
	store.LinkTag(tenet, "thriller")
	tenet.SetRating(8.0)
	slash, _ := store.AddMovie("Face/Off")
	store.LinkActor(slash, "B")
	if loaded {
		store.FinishLoad()
	}

	log := logger.Nop()
	engine, err := similarity.NewEngine(store, repos.Similarity, 10, 16, log)
	require.NoError(t, err)
	cfg := &config.Config{AdminSecret: testSecret}
	catalog := service.NewCatalogService(repos.Query, time.Minute)
	h := handler.NewHandler(cfg,
		service.NewMovieService(store, engine),
		catalog,
		service.NewExportService(store, repos.Catalog, engine, catalog, log),
		log)

	return &testServer{engine: router.New(h, log), store: store, repos: repos}
}

func (s *testServer) do(t *testing.T, method, path, token string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestAPI_GraphQueries(t *testing.T) {
	s := newTestServer(t, true)

	code, env := s.do(t, http.MethodGet, "/api/movies/count", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":3}`, string(env.Data))

	code, env = s.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"movies":3,"people":4,"tags":2}`, string(env.Data))

	code, env = s.do(t, http.MethodGet, "/api/movies/Tenet", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	var movie struct {
		Title  string  `json:"title"`
		Rating float64 `json:"rating"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &movie))
	assert.Equal(t, "Tenet", movie.Title)
	assert.Equal(t, 8.0, movie.Rating)

	code, _ = s.do(t, http.MethodGet, "/api/movies/"+url.PathEscape("Face/Off"), "")
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/movies/Memento", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)

	code, _ = s.do(t, http.MethodGet, "/api/people/A", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/people/Z", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodGet, "/api/tags/thriller", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/tags/western", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_SimilarMovies(t *testing.T) {
	s := newTestServer(t, true)

	code, env := s.do(t, http.MethodGet, "/api/movies/Inception/similar", "")
	require.Equal(t, http.StatusOK, code)
	var body struct {
		Items []struct {
			Movie struct {
				Title string `json:"title"`
			} `json:"movie"`
			Score float64 `json:"score"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Tenet", body.Items[0].Movie.Title)
	assert.InDelta(t, 0.5875, body.Items[0].Score, 1e-12)
	assert.Equal(t, "Face/Off", body.Items[1].Movie.Title)

	code, _ = s.do(t, http.MethodGet, "/api/movies/Memento/similar", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_SimilarWhileLoading(t *testing.T) {
	s := newTestServer(t, false)

	code, env := s.do(t, http.MethodGet, "/api/movies/Inception/similar", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, env.Success)

	edges, err := s.repos.Similarity.FindBySource(t.Context(), "Inception")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestAPI_AdminExportAndCatalog(t *testing.T) {
	s := newTestServer(t, true)

	code, _ := s.do(t, http.MethodPost, "/api/admin/export", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	viewer, err := middleware.GenerateToken("viewer", "viewer", testSecret, time.Hour)
	require.NoError(t, err)
	code, _ = s.do(t, http.MethodPost, "/api/admin/export", viewer)
	assert.Equal(t, http.StatusForbidden, code)

	forged, err := middleware.GenerateToken("ops", middleware.RoleAdmin, "another-secret-value", time.Hour)
	require.NoError(t, err)
	code, _ = s.do(t, http.MethodPost, "/api/admin/export", forged)
	assert.Equal(t, http.StatusUnauthorized, code)

	admin, err := middleware.GenerateToken("ops", middleware.RoleAdmin, testSecret, time.Hour)
	require.NoError(t, err)
	code, env := s.do(t, http.MethodPost, "/api/admin/export", admin)
	require.Equal(t, http.StatusOK, code)
	var report service.ExportReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 3, report.Movies)

	code, env = s.do(t, http.MethodGet, "/api/catalog/search?q=inc&type=movie", "")
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "Inception", page.Items[0].Name)

	code, _ = s.do(t, http.MethodGet, "/api/catalog/search?q=inc&type=genre", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/api/catalog/search", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/catalog/top?page=1&size=2", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/catalog/movies/Tenet", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/catalog/movies/Nope", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_Health(t *testing.T) {
	s := newTestServer(t, false)

	code, env := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","state":"loading"}`, string(env.Data))
}
