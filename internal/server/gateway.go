package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/devrev/graphmesh/internal/config"
	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/handler"
	"github.com/devrev/graphmesh/internal/service"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// GraphAPI is the orchestrator surface the gateway exposes.
// *service.GraphOrchestrator satisfies it.
type GraphAPI interface {
	AddVertex(ctx context.Context, key, value string) (service.MutationResult, error)
	DeleteVertex(ctx context.Context, key string) (service.MutationResult, error)
	AddEdge(ctx context.Context, from, to, label string) (service.MutationResult, error)
	DeleteEdge(ctx context.Context, from, to string) (service.MutationResult, error)
	Search(ctx context.Context, key string, level int) (*service.SearchResult, error)
}

// ErrorResponse is the body of every failed gateway request
type ErrorResponse struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type gateway struct {
	api    GraphAPI
	logger *zap.Logger
}

// HandleGraphAPI mounts the JSON gateway under /v1
func (s *Server) HandleGraphAPI(api GraphAPI, limits config.RateLimiterConfig) {
	g := &gateway{api: api, logger: s.logger}

	middlewares := []func(http.Handler) http.Handler{
		Recovery(s.logger),
		RequestID,
		Logging(s.logger),
	}
	if limits.Enabled {
		middlewares = append(middlewares, NewRateLimiter(limits.RequestsPerSecond, limits.BurstSize, s.logger).Limit)
	}

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.Use(Chain(middlewares...))

	v1.HandleFunc("/vertices", g.addVertex).Methods(http.MethodPost)
	v1.HandleFunc("/vertices/{key}", g.deleteVertex).Methods(http.MethodDelete)
	v1.HandleFunc("/edges", g.addEdge).Methods(http.MethodPost)
	v1.HandleFunc("/edges", g.deleteEdge).Methods(http.MethodDelete)
	v1.HandleFunc("/search", g.search).Methods(http.MethodGet)
}

func (g *gateway) addVertex(w http.ResponseWriter, r *http.Request) {
	var req pb.ApiVertex
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}

	res, err := g.api.AddVertex(r.Context(), req.Key, req.Value)
	g.writeMutation(w, r, res, err)
}

func (g *gateway) deleteVertex(w http.ResponseWriter, r *http.Request) {
	res, err := g.api.DeleteVertex(r.Context(), mux.Vars(r)["key"])
	g.writeMutation(w, r, res, err)
}

func (g *gateway) addEdge(w http.ResponseWriter, r *http.Request) {
	var req pb.ApiEdge
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}

	res, err := g.api.AddEdge(r.Context(), req.From, req.To, req.Label)
	g.writeMutation(w, r, res, err)
}

func (g *gateway) deleteEdge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := g.api.DeleteEdge(r.Context(), q.Get("from"), q.Get("to"))
	g.writeMutation(w, r, res, err)
}

func (g *gateway) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level := 0
	if raw := q.Get("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "level must be an integer")
			return
		}
		level = n
	}

	res, err := g.api.Search(r.Context(), q.Get("key"), level)
	if err != nil {
		g.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, handler.ToAPISearchResponse(res))
}

func (g *gateway) writeMutation(w http.ResponseWriter, r *http.Request, res service.MutationResult, err error) {
	if err != nil {
		g.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, handler.ToAPISummary(res))
}

func (g *gateway) writeGraphError(w http.ResponseWriter, r *http.Request, err error) {
	code := graphErrors.GetCode(err)
	httpStatus, label := httpStatusFor(code)
	if httpStatus >= http.StatusInternalServerError {
		g.logger.Error("Gateway request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err))
	}
	writeError(w, httpStatus, label, err.Error())
}

func httpStatusFor(code graphErrors.ErrorCode) (int, string) {
	switch code {
	case graphErrors.ErrCodeInvalidArgument, graphErrors.ErrCodeMalformedPayload:
		return http.StatusBadRequest, "INVALID_REQUEST"
	case graphErrors.ErrCodeVertexNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case graphErrors.ErrCodeVertexConflict, graphErrors.ErrCodeEdgeConflict:
		return http.StatusConflict, "CONFLICT"
	case graphErrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Status: "error", ErrorCode: code, Message: message})
}
