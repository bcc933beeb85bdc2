package pipeline

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/pricing"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/clinical"
)

// Handler exposes the billing pipeline over HTTP.
type Handler struct {
	orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{orch: orch}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/procedures/:case_id/invoice", h.ProcessProcedure)
}

// ProcessProcedure handles POST /procedures/:case_id/invoice. It runs the
// full billing pipeline for the case and returns the persisted invoice.
func (h *Handler) ProcessProcedure(c echo.Context) error {
	caseID := c.Param("case_id")
	if caseID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "case_id is required")
	}

	outcome, err := h.orch.ProcessCompletedProcedure(c.Request().Context(), caseID)
	if err != nil {
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			switch {
			case errors.Is(err, clinical.ErrCaseNotFound):
				return echo.NewHTTPError(http.StatusNotFound, "case not found in clinical system")
			case errors.Is(err, pricing.ErrZeroCharge):
				return echo.NewHTTPError(http.StatusUnprocessableEntity, "procedure is not billable")
			case stageErr.Stage == StageFetch:
				return echo.NewHTTPError(http.StatusBadGateway, "clinical system unavailable")
			}
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process procedure")
	}

	return c.JSON(http.StatusCreated, outcome)
}
