// README: Handler tests for candidate generation and reference resolution.
package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"moveflow/internal/config"
	"moveflow/internal/http/handlers"
	"moveflow/internal/modules/distance"
	"moveflow/internal/modules/match"
	"moveflow/internal/modules/matching"
	"moveflow/internal/modules/move"
	"moveflow/internal/modules/reference"
	"moveflow/internal/modules/request"
	"moveflow/internal/types"
)

// stubLister is a test double for the pending-request pool.
type stubLister struct {
	pool []request.Request
	err  error
}

func (s *stubLister) ListPending(_ context.Context) ([]request.Request, error) {
	return s.pool, s.err
}

func buildMatchingRouter(lister handlers.RequestLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	// Offline resolver: leg distances are a pure function of postal codes.
	gen := matching.NewGenerator(distance.NewResolver(nil, nil, nil), nil, config.MatchingConfig{})
	r := gin.New()
	h := handlers.NewMatchingHandler(lister, gen)
	r.GET("/api/matching/candidates", h.Candidates)
	return r
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCandidates_ReturnsSortedCandidates(t *testing.T) {
	d1 := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	r := buildMatchingRouter(&stubLister{pool: []request.Request{
		{ID: 1, OriginPostal: "75001", DestPostal: "69001", EstimatedVolume: 10, DesiredDate: &d1},
		{ID: 2, OriginPostal: "75002", DestPostal: "69002", EstimatedVolume: 8, DesiredDate: &d2},
	}})

	w := doGet(r, "/api/matching/candidates")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		PoolSize   int                  `json:"pool_size"`
		Candidates []matching.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.PoolSize != 2 {
		t.Errorf("pool_size = %d, want 2", body.PoolSize)
	}
	if len(body.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(body.Candidates))
	}
	if body.Candidates[0].Score != 31 {
		t.Errorf("score = %d, want 31", body.Candidates[0].Score)
	}
}

func TestCandidates_EmptyPoolIsEmptyList(t *testing.T) {
	r := buildMatchingRouter(&stubLister{})
	w := doGet(r, "/api/matching/candidates")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Candidates []matching.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Candidates == nil {
		t.Error("candidates should be an empty list, not null")
	}
}

func TestCandidates_ListerFailure(t *testing.T) {
	r := buildMatchingRouter(&stubLister{err: errors.New("db down")})
	w := doGet(r, "/api/matching/candidates")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// --- reference handler ---

type stubRequestGetter struct{ data map[types.ID]*request.Request }

func (s *stubRequestGetter) Get(_ context.Context, id types.ID) (*request.Request, error) {
	if r, ok := s.data[id]; ok {
		return r, nil
	}
	return nil, request.ErrNotFound
}

type stubMoveGetter struct{}

func (s *stubMoveGetter) Get(_ context.Context, _ types.ID) (*move.Move, error) {
	return nil, move.ErrNotFound
}

type stubMatchGetter struct{}

func (s *stubMatchGetter) Get(_ context.Context, _ types.ID) (*match.Record, error) {
	return nil, match.ErrNotFound
}

func buildReferenceRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	resolver := reference.NewResolver(
		&stubRequestGetter{data: map[types.ID]*request.Request{
			1: {ID: 1, OriginPostal: "75001", DestPostal: "69001"},
		}},
		&stubMoveGetter{},
		&stubMatchGetter{},
	)
	r := gin.New()
	h := handlers.NewReferenceHandler(resolver)
	r.GET("/api/references/:code", h.Resolve)
	return r
}

func TestResolveReference_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantCode int
	}{
		{"known client", "CLI-000001", http.StatusOK},
		{"missing client", "CLI-000042", http.StatusNotFound},
		{"unknown prefix", "XYZ-000001", http.StatusBadRequest},
		{"missing match", "MTH-000007", http.StatusNotFound},
	}

	r := buildReferenceRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, "/api/references/"+tt.code)
			if w.Code != tt.wantCode {
				t.Errorf("GET %s = %d, want %d", tt.code, w.Code, tt.wantCode)
			}
		})
	}
}
