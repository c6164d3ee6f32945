package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-raghavan/chronoguard-lite/internal/analytics"
	"github.com/j-raghavan/chronoguard-lite/internal/cryptochain"
	"github.com/j-raghavan/chronoguard-lite/internal/domain"
	"github.com/j-raghavan/chronoguard-lite/internal/ratelimit"
	"github.com/j-raghavan/chronoguard-lite/internal/search"
	"github.com/j-raghavan/chronoguard-lite/internal/store"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	chain := cryptochain.NewChain()
	entry := domain.NewAuditEntry(domain.NewID(), "api.openai.com", domain.Allow, domain.Timestamp(1), "matched")
	chain.Append(entry)

	auditStore := store.NewColumnarAuditStore()
	require.NoError(t, auditStore.Append(entry))

	searchEngine := search.NewEngine()
	searchEngine.IndexEntry(entry)

	analyticsEngine, err := analytics.NewEngine()
	require.NoError(t, err)
	analyticsEngine.ProcessEntry(entry)

	return Deps{Chain: chain, Store: auditStore, Search: searchEngine, Analytics: analyticsEngine}
}

func doRequest(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(newTestDeps(t), nil)
	w := doRequest(router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLedgerVerifyEndpoint(t *testing.T) {
	router := NewRouter(newTestDeps(t), nil)
	w := doRequest(router, http.MethodGet, "/api/v1/admin/ledger/verify")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "IsValid")
}

func TestLedgerGetEntryEndpoint(t *testing.T) {
	router := NewRouter(newTestDeps(t), nil)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/ledger/entries/0")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/ledger/entries/not-a-number")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/ledger/entries/999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditSearchEndpoint(t *testing.T) {
	router := NewRouter(newTestDeps(t), nil)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/audit/search?q=domain:openai")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/audit/search")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/audit/search?q=malformed")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditRangeEndpoint(t *testing.T) {
	router := NewRouter(newTestDeps(t), nil)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/audit/range?start=0&end=10")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/audit/range?start=nope&end=10")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	router := NewRouter(newTestDeps(t), nil)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/analytics/unique-agents/api.openai.com")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/analytics/frequency/api.openai.com")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/analytics/memory")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterAppliesRateLimiterWhenProvided(t *testing.T) {
	limiter := ratelimit.NewIPLimiter(1, 1)
	router := NewRouter(newTestDeps(t), limiter)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "9.9.9.9:1111"

	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req)
	assert.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
}
