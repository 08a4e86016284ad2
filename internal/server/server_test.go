package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskatlas/riskmap-cli/internal/model"
	"github.com/riskatlas/riskmap-cli/internal/overlay"
	"github.com/riskatlas/riskmap-cli/internal/pass"
	"github.com/riskatlas/riskmap-cli/internal/store"
	"github.com/riskatlas/riskmap-cli/internal/summary"
)

type runnerFunc func(ctx context.Context, address string) (*pass.Result, error)

func (f runnerFunc) Run(ctx context.Context, address string) (*pass.Result, error) {
	return f(ctx, address)
}

type historyFunc func(ctx context.Context, limit int) ([]store.PassRecord, error)

func (f historyFunc) RecentPasses(ctx context.Context, limit int) ([]store.PassRecord, error) {
	return f(ctx, limit)
}

func fixedResult(address string) *pass.Result {
	o := &overlay.MapOverlay{
		Center: model.GeoPoint{Lon: 126.7149, Lat: 35.0391},
		Zoom:   15,
		Circles: []overlay.Circle{
			{Center: model.GeoPoint{Lon: 126.71, Lat: 35.03}, Radius: 10, Color: "purple", Popup: "p"},
		},
	}
	if address != "" {
		o.AddressMarker = &overlay.Marker{Point: o.Center, Label: address}
	}
	return &pass.Result{
		PassID:  "11111111-2222-3333-4444-555555555555",
		Overlay: o,
		Summary: summary.Aggregate(nil),
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := New(runnerFunc(func(ctx context.Context, address string) (*pass.Result, error) {
		return fixedResult(address), nil
	}), nil)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestIndexServesMapPage(t *testing.T) {
	t.Parallel()

	srv := New(runnerFunc(func(ctx context.Context, address string) (*pass.Result, error) {
		return fixedResult(address), nil
	}), nil)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "leaflet")
}

func TestOverlay_PassesAddressThrough(t *testing.T) {
	t.Parallel()

	var gotAddress string
	srv := New(runnerFunc(func(ctx context.Context, address string) (*pass.Result, error) {
		gotAddress = address
		return fixedResult(address), nil
	}), nil)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
		"/api/overlay?address=%EC%A0%84%EB%82%A8+%EB%82%98%EC%A3%BC%EC%8B%9C", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "전남 나주시", gotAddress)

	var resp struct {
		PassID   string    `json:"pass_id"`
		Center   []float64 `json:"center"`
		Zoom     int       `json:"zoom"`
		Features struct {
			Type     string `json:"type"`
			Features []struct {
				Properties map[string]any `json:"properties"`
			} `json:"features"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.PassID)
	assert.Equal(t, 15, resp.Zoom)
	require.Len(t, resp.Center, 2)
	assert.InDelta(t, 126.7149, resp.Center[0], 1e-9)
	assert.Equal(t, "FeatureCollection", resp.Features.Type)
	require.Len(t, resp.Features.Features, 2) // circle + marker
	assert.Equal(t, "circle", resp.Features.Features[0].Properties["kind"])
	assert.Equal(t, "address", resp.Features.Features[1].Properties["kind"])
}

func TestOverlay_RunnerErrorIs500(t *testing.T) {
	t.Parallel()

	srv := New(runnerFunc(func(ctx context.Context, address string) (*pass.Result, error) {
		return nil, eris.New("dataset: open ./missing.csv")
	}), nil)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/overlay", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "rendering pass failed")
	// Internal error detail never leaks to the client.
	assert.NotContains(t, rr.Body.String(), "missing.csv")
}

func TestSummaryEndpoint(t *testing.T) {
	t.Parallel()

	srv := New(runnerFunc(func(ctx context.Context, address string) (*pass.Result, error) {
		assert.Empty(t, address)
		return fixedResult(address), nil
	}), nil)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var s summary.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.NotNil(t, s.GradeCounts)
}

func TestPasses_Disabled(t *testing.T) {
	t.Parallel()

	srv := New(runnerFunc(func(ctx context.Context, address string) (*pass.Result, error) {
		return fixedResult(address), nil
	}), nil)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/passes", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPasses_LimitValidation(t *testing.T) {
	t.Parallel()

	srv := New(nil, historyFunc(func(ctx context.Context, limit int) ([]store.PassRecord, error) {
		return nil, nil
	}))

	for _, raw := range []string{"0", "-1", "201", "abc"} {
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/passes?limit="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, raw)
	}
}

func TestPasses_ReturnsRows(t *testing.T) {
	t.Parallel()

	srv := New(nil, historyFunc(func(ctx context.Context, limit int) ([]store.PassRecord, error) {
		assert.Equal(t, 5, limit)
		return []store.PassRecord{{ID: "a", Zoom: 15}, {ID: "b", Zoom: 8}}, nil
	}))

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/passes?limit=5", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var rows []store.PassRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
}

func TestPasses_EmptyHistoryIsEmptyArray(t *testing.T) {
	t.Parallel()

	srv := New(nil, historyFunc(func(ctx context.Context, limit int) ([]store.PassRecord, error) {
		return nil, nil
	}))

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/passes", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()

	srv := New(runnerFunc(func(ctx context.Context, address string) (*pass.Result, error) {
		return fixedResult(address), nil
	}), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
