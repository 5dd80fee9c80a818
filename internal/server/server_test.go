package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devrev/graphmesh/internal/config"
	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/health"
	"github.com/devrev/graphmesh/internal/model"
	"github.com/devrev/graphmesh/internal/service"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGraphAPI struct {
	calls []string
	err   error
}

func (f *fakeGraphAPI) AddVertex(ctx context.Context, key, value string) (service.MutationResult, error) {
	f.calls = append(f.calls, "AddVertex "+key+"="+value)
	if key == "" {
		return service.MutationResult{}, graphErrors.InvalidArgument("vertex key is required", nil)
	}
	return service.MutationResult{Applied: 1}, f.err
}

func (f *fakeGraphAPI) DeleteVertex(ctx context.Context, key string) (service.MutationResult, error) {
	f.calls = append(f.calls, "DeleteVertex "+key)
	return service.MutationResult{Missing: 1}, f.err
}

func (f *fakeGraphAPI) AddEdge(ctx context.Context, from, to, label string) (service.MutationResult, error) {
	f.calls = append(f.calls, "AddEdge "+from+"-"+label+"-"+to)
	return service.MutationResult{Applied: 2}, f.err
}

func (f *fakeGraphAPI) DeleteEdge(ctx context.Context, from, to string) (service.MutationResult, error) {
	f.calls = append(f.calls, "DeleteEdge "+from+"-"+to)
	return service.MutationResult{Applied: 2}, f.err
}

func (f *fakeGraphAPI) Search(ctx context.Context, key string, level int) (*service.SearchResult, error) {
	f.calls = append(f.calls, "Search "+key)
	if level < 0 {
		return nil, graphErrors.InvalidArgument("search level must be non-negative", nil)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &service.SearchResult{
		Vertices: []model.SearchVertex{{Key: "a", Value: "A"}, {Key: "b", Value: "B"}},
		Edges:    []model.SearchEdge{{Key: "afriendb", From: "a", To: "b", Label: "friend"}},
	}, nil
}

func newGatewayServer(api GraphAPI, limits config.RateLimiterConfig) *Server {
	s := NewServer(0, zap.NewNop())
	s.HandleGraphAPI(api, limits)
	return s
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestGateway_Routes(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		wantCode int
		wantCall string
	}{
		{"add vertex", http.MethodPost, "/v1/vertices", `{"key":"a","value":"A"}`, http.StatusOK, "AddVertex a=A"},
		{"delete vertex", http.MethodDelete, "/v1/vertices/a", "", http.StatusOK, "DeleteVertex a"},
		{"add edge", http.MethodPost, "/v1/edges", `{"from":"a","to":"b","label":"friend"}`, http.StatusOK, "AddEdge a-friend-b"},
		{"delete edge", http.MethodDelete, "/v1/edges?from=a&to=b", "", http.StatusOK, "DeleteEdge a-b"},
		{"search", http.MethodGet, "/v1/search?key=a&level=1", "", http.StatusOK, "Search a"},
		{"bad level", http.MethodGet, "/v1/search?key=a&level=x", "", http.StatusBadRequest, ""},
		{"negative level", http.MethodGet, "/v1/search?key=a&level=-1", "", http.StatusBadRequest, "Search a"},
		{"bad body", http.MethodPost, "/v1/vertices", `{not json`, http.StatusBadRequest, ""},
		{"missing key", http.MethodPost, "/v1/vertices", `{}`, http.StatusBadRequest, "AddVertex ="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeGraphAPI{}
			rec := serve(newGatewayServer(api, config.RateLimiterConfig{}), tt.method, tt.target, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			if tt.wantCall == "" {
				assert.Empty(t, api.calls)
			} else {
				assert.Equal(t, []string{tt.wantCall}, api.calls)
			}
		})
	}
}

func TestGateway_SearchBody(t *testing.T) {
	rec := serve(newGatewayServer(&fakeGraphAPI{}, config.RateLimiterConfig{}), http.MethodGet, "/v1/search?key=a&level=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp pb.ApiSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Vertices, 2)
	assert.Equal(t, "a", resp.Vertices[0].Key)
	require.Len(t, resp.Edges, 1)
	assert.Equal(t, "afriendb", resp.Edges[0].Key)
}

func TestGateway_MutationSummary(t *testing.T) {
	rec := serve(newGatewayServer(&fakeGraphAPI{}, config.RateLimiterConfig{}), http.MethodDelete, "/v1/vertices/ghost", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary pb.ApiGraphSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.False(t, summary.Success)
	assert.Equal(t, "not found", summary.Message)
}

func TestGateway_UnavailableMapsTo503(t *testing.T) {
	api := &fakeGraphAPI{err: graphErrors.Unavailable("AddVertex failed", errors.New("refused"))}
	rec := serve(newGatewayServer(api, config.RateLimiterConfig{}), http.MethodPost, "/v1/vertices", `{"key":"a"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UNAVAILABLE", body.ErrorCode)
}

func TestGateway_RateLimit(t *testing.T) {
	s := newGatewayServer(&fakeGraphAPI{}, config.RateLimiterConfig{Enabled: true, RequestsPerSecond: 0.001, BurstSize: 1})

	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/v1/search?key=a", "").Code)
	rec := serve(s, http.MethodGet, "/v1/search?key=a", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestServer_NotFound(t *testing.T) {
	rec := serve(NewServer(0, zap.NewNop()), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "graphmesh_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	ready := errors.New("shards not checked yet")
	checker := health.NewHealthChecker(map[string]health.Probe{
		"shards": func() error { return ready },
	}, zap.NewNop())

	s := NewServer(0, zap.NewNop())
	s.HandleMetrics("/metrics", reg)
	s.HandleHealth(checker)

	rec := serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graphmesh_test_total 1")

	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(s, http.MethodGet, "/health/ready", "").Code)

	ready = nil
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/health/ready", "").Code)
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
