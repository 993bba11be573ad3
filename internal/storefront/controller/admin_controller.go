package controller

import (
	"context"
	"net/http"

	"padaria/internal/domain"
	"padaria/internal/dto"
	"padaria/internal/storefront"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// admin resolves the session and rejects it unless it has logged in.
func (c *Controller) admin(w http.ResponseWriter, r *http.Request, traceID string, logger *zap.Logger) (*storefront.Session, bool) {
	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return nil, false
	}
	if err := s.RequireAdmin(); err != nil {
		c.handleError(w, traceID, err, logger)
		return nil, false
	}
	return s, true
}

func (c *Controller) CreateBakery(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if _, ok := c.admin(w, r, traceID, logger); !ok {
		return
	}

	var req dto.CreateBakeryRequest
	if !c.decode(w, r, traceID, &req) {
		return
	}

	bakery, err := c.catalog.CreateBakery(r.Context(), req.Name, req.Description)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.CreatedResponse{TraceID: traceID, ID: bakery.ID})
}

func (c *Controller) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.admin(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.CreateMenuItemRequest
	if !c.decode(w, r, traceID, &req) {
		return
	}

	id, err := s.Engine.AddMenuItem(r.Context(), req.Name, *req.Price)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.CreatedResponse{TraceID: traceID, ID: id})
}

func (c *Controller) RemoveMenuItem(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.admin(w, r, traceID, logger)
	if !ok {
		return
	}

	item := domain.MenuItem{ID: chi.URLParam(r, "itemId")}
	if err := s.Engine.RemoveMenuItem(r.Context(), item); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	c.changeStatus(w, r, (*storefront.Engine).AdvanceOrder)
}

func (c *Controller) RegressOrder(w http.ResponseWriter, r *http.Request) {
	c.changeStatus(w, r, (*storefront.Engine).RegressOrder)
}

func (c *Controller) changeStatus(w http.ResponseWriter, r *http.Request, step func(*storefront.Engine, context.Context, string) (domain.OrderStatus, error)) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.admin(w, r, traceID, logger)
	if !ok {
		return
	}

	remoteID := chi.URLParam(r, "orderId")
	status, err := step(s.Engine, r.Context(), remoteID)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.StatusChangeResponse{
		TraceID:  traceID,
		RemoteID: remoteID,
		Status:   string(status),
	})
}

func (c *Controller) OrderHistory(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if _, ok := c.admin(w, r, traceID, logger); !ok {
		return
	}

	remoteID := chi.URLParam(r, "orderId")
	transitions, err := c.history.History(r.Context(), remoteID)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	response := dto.HistoryResponse{
		TraceID:     traceID,
		RemoteID:    remoteID,
		Transitions: make([]dto.TransitionResponse, 0, len(transitions)),
	}
	for _, t := range transitions {
		response.Transitions = append(response.Transitions, dto.TransitionResponse{
			From:      string(t.FromStatus),
			To:        string(t.ToStatus),
			ChangedAt: t.ChangedAt.UTC(),
		})
	}

	c.writeJSON(w, http.StatusOK, response)
}
