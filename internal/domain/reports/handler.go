package reports

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Publisher pushes a finalized monthly revenue report to an external
// reporting sink.
type Publisher interface {
	PushMonthlyRevenue(ctx context.Context, report *MonthlyRevenue) error
}

// Handler exposes the reporting endpoints. A nil publisher disables the
// publish route's upstream push and reports it as unavailable.
type Handler struct {
	svc       *Service
	publisher Publisher
}

func NewHandler(svc *Service, publisher Publisher) *Handler {
	return &Handler{svc: svc, publisher: publisher}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/reports/monthly-revenue", h.MonthlyRevenue)
	g.GET("/reports/monthly-revenue/export", h.MonthlyRevenuePDF)
	g.POST("/reports/monthly-revenue/publish", h.PublishMonthlyRevenue)
	g.GET("/reports/aged-ar", h.AgedAR)
	g.GET("/reports/aged-ar/export", h.AgedARXLSX)
}

// MonthlyRevenue handles GET /reports/monthly-revenue.
func (h *Handler) MonthlyRevenue(c echo.Context) error {
	report, err := h.svc.MonthlyRevenue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate monthly revenue report")
	}
	return c.JSON(http.StatusOK, report)
}

// MonthlyRevenuePDF handles GET /reports/monthly-revenue/export.
func (h *Handler) MonthlyRevenuePDF(c echo.Context) error {
	report, err := h.svc.MonthlyRevenue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate monthly revenue report")
	}
	data, err := BuildMonthlyRevenuePDF(report)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render report")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="monthly-revenue.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// PublishMonthlyRevenue handles POST /reports/monthly-revenue/publish.
// A failed upstream push is 502; the report itself is still returned so the
// caller can retry or inspect what would have been sent.
func (h *Handler) PublishMonthlyRevenue(c echo.Context) error {
	report, err := h.svc.MonthlyRevenue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate monthly revenue report")
	}

	if h.publisher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "report publishing is not configured")
	}
	if err := h.publisher.PushMonthlyRevenue(c.Request().Context(), report); err != nil {
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error":  "failed to publish report",
			"report": report,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"published": true,
		"report":    report,
	})
}

// AgedAR handles GET /reports/aged-ar.
func (h *Handler) AgedAR(c echo.Context) error {
	buckets, err := h.svc.AgedAR(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate aged A/R report")
	}
	return c.JSON(http.StatusOK, buckets)
}

// AgedARXLSX handles GET /reports/aged-ar/export.
func (h *Handler) AgedARXLSX(c echo.Context) error {
	buckets, err := h.svc.AgedAR(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate aged A/R report")
	}
	data, err := BuildAgedARXLSX(buckets)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render report")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="aged-ar.xlsx"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
