package controller

import (
	"net/http"
	"time"

	"padaria/internal/dto"
	apperrors "padaria/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultChangesWait = 25 * time.Second
	maxChangesWait     = time.Minute
)

// Changes long-polls the session: it answers as soon as the menu or the
// orders change, or when the wait expires, with the state at that moment.
func (c *Controller) Changes(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	wait := defaultChangesWait
	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 || d > maxChangesWait {
			c.writeValidationError(w, traceID, "invalid wait", apperrors.ValidationDetail{
				Field:   "wait",
				Message: "wait must be a duration between 0s and " + maxChangesWait.String(),
			})
			return
		}
		wait = d
	}

	// The long poll may outlast the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(wait + 5*time.Second)); err != nil {
		logger.Debug("write deadline not extended", zap.Error(err))
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	changed := false
	select {
	case _, open := <-s.Engine.Changes():
		if !open {
			c.handleError(w, traceID, apperrors.NewConflictError("session is closed"), logger)
			return
		}
		changed = true
	case <-timer.C:
	case <-r.Context().Done():
		return
	}

	snapshot := s.Engine.Snapshot()
	response := dto.ChangesResponse{
		TraceID:  traceID,
		Changed:  changed,
		BakeryID: snapshot.Selection.BakeryID(),
		Menu:     make([]dto.MenuItemResponse, 0, len(snapshot.MenuItems)),
		Orders:   make([]dto.OrderResponse, 0, len(snapshot.Orders)),
	}
	for _, item := range snapshot.MenuItems {
		response.Menu = append(response.Menu, toMenuItemResponse(item))
	}
	for _, order := range snapshot.Orders {
		response.Orders = append(response.Orders, toOrderResponse(order))
	}

	c.writeJSON(w, http.StatusOK, response)
}
