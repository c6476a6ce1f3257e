package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/clock"
	"github.com/abhisek/prepday/internal/daily"
	"github.com/abhisek/prepday/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, store.UserStateRepo) {
	t.Helper()
	repo := store.NewMemoryStore()
	svc, err := daily.NewService(catalog.Default(), repo, clock.Fixed("2024-05-01"))
	require.NoError(t, err)
	return New(svc, nil), repo
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestTransitionThenToday(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/users/u1/transition")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["transitioned"])
	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "2024-05-01", result["date"])

	w = do(t, s, http.MethodPost, "/v1/users/u1/transition")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["transitioned"])

	w = do(t, s, http.MethodGet, "/v1/users/u1/today")
	require.Equal(t, http.StatusOK, w.Code)
	today := decode(t, w)
	assert.Equal(t, false, today["stale"])
	assert.NotEmpty(t, today["items"])
}

func TestToggleEndpoint(t *testing.T) {
	s, repo := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/users/u1/generate")
	require.Equal(t, http.StatusOK, w.Code)

	st, err := repo.Get(t.Context(), "u1")
	require.NoError(t, err)
	id := st.DailyAssignments[0].ModuleID

	path := "/v1/users/u1/assignments/" + strings.ReplaceAll(id, " ", "%20") + "/toggle"
	w = do(t, s, http.MethodPost, path)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, float64(1), body["completedCount"])

	w = do(t, s, http.MethodPost, "/v1/users/u1/assignments/Part%209%2001/toggle")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateNoEligibleIsConflict(t *testing.T) {
	s, repo := newTestServer(t)
	st := store.NewUserState("u1")
	for _, m := range catalog.Default().ByCategory(catalog.Text) {
		st.Stats = append(st.Stats, store.PracticeStat{ModuleID: m.ID, CompletedCount: 10})
	}
	require.NoError(t, repo.Put(t.Context(), st))

	w := do(t, s, http.MethodPost, "/v1/users/u1/generate")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w)["error"], "no eligible modules")
}

func TestStatsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/v1/users/u1/stats?sort=count&category=reading")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := decode(t, w)["rows"].([]any)
	assert.Len(t, rows, len(catalog.Default().ByCategory(catalog.Text)))

	w = do(t, s, http.MethodGet, "/v1/users/u1/stats?sort=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/v1/catalog?group=7")
	require.Equal(t, http.StatusOK, w.Code)
	mods := decode(t, w)["modules"].([]any)
	assert.Len(t, mods, 4)

	w = do(t, s, http.MethodGet, "/v1/catalog?category=video")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteUser(t *testing.T) {
	s, repo := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/v1/users/u1/generate").Code)

	w := do(t, s, http.MethodDelete, "/v1/users/u1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	st, err := repo.Get(t.Context(), "u1")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/v1/users/u1/generate").Code)

	w := do(t, s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prepday_allocations_total")
}
