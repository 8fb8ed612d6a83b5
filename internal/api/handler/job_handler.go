package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/crossborder-tracker/internal/core/jobs"
)

type DomesticSyncer interface {
	Run(ctx context.Context) (jobs.DomesticSyncResult, error)
}

type Simulator interface {
	Run(ctx context.Context) (jobs.SimulationResult, error)
}

type StuckDetector interface {
	Run(ctx context.Context) (jobs.StuckResult, error)
}

// JobHandler lets an external scheduler trigger one run of each job and
// read back its counts.
type JobHandler struct {
	sync     DomesticSyncer
	simulate Simulator
	stuck    StuckDetector
}

func NewJobHandler(sync DomesticSyncer, simulate Simulator, stuck StuckDetector) *JobHandler {
	return &JobHandler{sync: sync, simulate: simulate, stuck: stuck}
}

// DomesticSync handles POST /v1/jobs/domestic-sync.
//
// @Summary      Run one domestic tracking sync cycle
// @Tags         jobs
// @Produce      json
// @Success      200  {object}  jobs.DomesticSyncResult
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/jobs/domestic-sync [post]
func (h *JobHandler) DomesticSync(c echo.Context) error {
	res, err := h.sync.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// InternationalSimulation handles POST /v1/jobs/international-simulation.
//
// @Summary      Advance every international shipment by one step
// @Tags         jobs
// @Produce      json
// @Success      200  {object}  jobs.SimulationResult
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/jobs/international-simulation [post]
func (h *JobHandler) InternationalSimulation(c echo.Context) error {
	res, err := h.simulate.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// StuckDetection handles POST /v1/jobs/stuck-detection.
//
// @Summary      Flag domestic shipments idle for more than 48 hours
// @Tags         jobs
// @Produce      json
// @Success      200  {object}  jobs.StuckResult
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/jobs/stuck-detection [post]
func (h *JobHandler) StuckDetection(c echo.Context) error {
	res, err := h.stuck.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
