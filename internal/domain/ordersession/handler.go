package ordersession

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinrec/orderentry/internal/platform/auth"
)

// ActiveOrderSource looks up a previously submitted order so it can be
// pulled into the form for revision.
type ActiveOrderSource interface {
	ActiveOrder(ctx context.Context, orderUUID string) (*ActiveOrder, error)
}

// Handler exposes session operations over HTTP. Sessions live in memory,
// keyed by id; their drafts never touch the database until submission.
type Handler struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	deps               Deps
	orders             ActiveOrderSource
	defaultCareSetting string
}

func NewHandler(deps Deps, orders ActiveOrderSource, defaultCareSetting string) *Handler {
	return &Handler{
		sessions:           make(map[uuid.UUID]*Session),
		deps:               deps,
		orders:             orders,
		defaultCareSetting: defaultCareSetting,
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/order-entry", auth.RequireRole("admin", "physician"))
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions/:id", h.GetSession)
	g.DELETE("/sessions/:id", h.EndSession)
	g.POST("/sessions/:id/drug", h.SelectDrug)
	g.POST("/sessions/:id/search", h.SearchChange)
	g.POST("/sessions/:id/fields", h.SetField)
	g.POST("/sessions/:id/blur", h.BlurField)
	g.POST("/sessions/:id/variant", h.SwitchVariant)
	g.POST("/sessions/:id/confirm", h.Confirm)
	g.GET("/sessions/:id/drafts", h.ListDrafts)
	g.POST("/sessions/:id/drafts/:num/edit", h.EditDraft)
	g.POST("/sessions/:id/drafts/:num/submit", h.SubmitDraft)
	g.DELETE("/sessions/:id/drafts/:num", h.DiscardDraft)
	g.DELETE("/sessions/:id/drafts", h.DiscardAll)
	g.POST("/sessions/:id/revise", h.Revise)
	g.POST("/sessions/:id/tab", h.ChangeTab)
}

func (h *Handler) session(c echo.Context) (*Session, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return s, nil
}

func (h *Handler) draftNumber(c echo.Context) (int, error) {
	num, err := strconv.Atoi(c.Param("num"))
	if err != nil || num <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid draft order number")
	}
	return num, nil
}

func (h *Handler) CreateSession(c echo.Context) error {
	var req struct {
		CareSetting string `json:"careSetting"`
		Orderer     string `json:"orderer"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CareSetting == "" {
		req.CareSetting = h.defaultCareSetting
	}
	if req.Orderer == "" {
		req.Orderer = auth.UserIDFromContext(c.Request().Context())
	}

	s := NewSession(req.CareSetting, req.Orderer, h.deps)
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	return c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *Handler) GetSession(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) EndSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SelectDrug(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var ref DrugReference
	if err := c.Bind(&ref); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if ref.UUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "drug uuid is required")
	}
	s.SelectDrug(ref)
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) SearchChange(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.SearchChange(req.Text)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetField(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.SetField(req.Name, req.Value); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) BlurField(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.BlurField(c.Request().Context(), req.Name); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) SwitchVariant(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Variant Variant `json:"variant"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.SwitchVariant(req.Variant); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) Confirm(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	draft, err := s.Confirm()
	switch {
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrNoDrugSelected):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSubmissionInFlight):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, draft)
}

func (h *Handler) ListDrafts(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Drafts())
}

func (h *Handler) EditDraft(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	num, err := h.draftNumber(c)
	if err != nil {
		return err
	}
	s.EditDraft(num)
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) SubmitDraft(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	num, err := h.draftNumber(c)
	if err != nil {
		return err
	}
	err = s.SubmitDraft(c.Request().Context(), num)
	switch {
	case errors.Is(err, ErrDraftNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSubmissionInFlight):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) DiscardDraft(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	num, err := h.draftNumber(c)
	if err != nil {
		return err
	}
	s.DiscardDraft(num)
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) DiscardAll(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.DiscardAll()
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) Revise(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		OrderUUID string `json:"orderUuid"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrderUUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "orderUuid is required")
	}
	order, err := h.orders.ActiveOrder(c.Request().Context(), req.OrderUUID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	s.Revise(*order)
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) ChangeTab(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.ChangeTab()
	return c.JSON(http.StatusOK, s.Snapshot())
}
