package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/crossborder-tracker/internal/core/jobs"
)

type stubSyncer struct {
	res jobs.DomesticSyncResult
	err error
}

func (s stubSyncer) Run(context.Context) (jobs.DomesticSyncResult, error) { return s.res, s.err }

type stubSimulator struct{ res jobs.SimulationResult }

func (s stubSimulator) Run(context.Context) (jobs.SimulationResult, error) { return s.res, nil }

type stubStuck struct{ res jobs.StuckResult }

func (s stubStuck) Run(context.Context) (jobs.StuckResult, error) { return s.res, nil }

func TestJobHandler_ReturnsCounts(t *testing.T) {
	e := echo.New()
	h := NewJobHandler(
		stubSyncer{res: jobs.DomesticSyncResult{Processed: 5, Updated: 2, Skipped: 2, Errors: 1}},
		stubSimulator{res: jobs.SimulationResult{Processed: 3, Advanced: 3}},
		stubStuck{res: jobs.StuckResult{Detected: 1, Flagged: 1}},
	)

	tests := []struct {
		name string
		run  echo.HandlerFunc
		want map[string]float64
	}{
		{"domestic sync", h.DomesticSync, map[string]float64{"processed": 5, "updated": 2, "skipped": 2, "errors": 1}},
		{"international simulation", h.InternationalSimulation, map[string]float64{"processed": 3, "advanced": 3, "errors": 0}},
		{"stuck detection", h.StuckDetection, map[string]float64{"detected": 1, "flagged": 1, "errors": 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

			if err := tc.run(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var got map[string]float64
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("%s: expected %v, got %v", k, v, got[k])
				}
			}
		})
	}
}

func TestJobHandler_DomesticSyncError(t *testing.T) {
	e := echo.New()
	boom := errors.New("lock backend unavailable")
	h := NewJobHandler(stubSyncer{err: boom}, stubSimulator{}, stubStuck{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	if err := h.DomesticSync(c); !errors.Is(err, boom) {
		t.Fatalf("expected error to pass through, got %v", err)
	}
}
