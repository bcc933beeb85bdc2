package invoice

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/syedakhiyarhussain/Revenue-Agent/pkg/pagination"
)

// Handler exposes invoice lookups and the payment status tracker.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/invoices", h.ListInvoices)
	g.GET("/invoices/:id", h.GetInvoice)
	g.PUT("/invoices/:id/status", h.UpdateStatus)
}

// ListInvoices handles GET /invoices with limit/offset paging.
func (h *Handler) ListInvoices(c echo.Context) error {
	p := pagination.FromContext(c)
	records, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list invoices")
	}

	resp := pagination.NewResponse(records, total, p.Limit, p.Offset)
	resp.Links = p.Links(c.Request().URL.Path, total)
	return c.JSON(http.StatusOK, resp)
}

// GetInvoice handles GET /invoices/:id.
func (h *Handler) GetInvoice(c echo.Context) error {
	rec, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve invoice")
	}
	return c.JSON(http.StatusOK, rec)
}

// UpdateStatus handles PUT /invoices/:id/status. Unknown ids are 404; an
// invalid status or a Paid transition without a payment date is 400.
func (h *Handler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")

	var upd Update
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updated, err := h.svc.UpdatePaymentStatus(c.Request().Context(), id, upd)
	if err != nil {
		if errors.Is(err, ErrPaidWithoutDate) || !upd.PaymentStatus.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update invoice")
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}

	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve updated invoice")
	}
	return c.JSON(http.StatusOK, rec)
}
