package order

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinrec/orderentry/internal/platform/auth"
	"github.com/clinrec/orderentry/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:id", h.GetOrder)

	write := api.Group("", auth.RequireRole("admin", "physician"))
	write.POST("/orders/:id/discontinue", h.DiscontinueOrder)
}

func (h *Handler) ListOrders(c echo.Context) error {
	pg := pagination.FromContext(c)

	f := ListFilter{
		Status:      c.QueryParam("status"),
		CareSetting: c.QueryParam("care_setting"),
		Orderer:     c.QueryParam("orderer"),
	}
	if raw := c.QueryParam("drug"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid drug id")
		}
		f.DrugID = id
	}

	items, total, err := h.svc.ListOrders(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Path())
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) DiscontinueOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.DiscontinueOrder(c.Request().Context(), id)
	switch {
	case errors.Is(err, ErrNotActive):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}
