package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"padaria/internal/cart"
	"padaria/internal/domain"
	"padaria/internal/dto"
	apperrors "padaria/internal/errors"
	"padaria/internal/storefront"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionManager interface {
	Create() *storefront.Session
	Get(id string) (*storefront.Session, error)
	Close(id string) error
}

type BakeryCatalog interface {
	SearchBakeries(ctx context.Context, q string) ([]domain.Bakery, error)
	FindBakery(ctx context.Context, id string) (domain.Bakery, error)
	CreateBakery(ctx context.Context, name, description string) (domain.Bakery, error)
}

type OrderHistory interface {
	History(ctx context.Context, orderRemoteID string) ([]domain.StatusTransition, error)
}

type Controller struct {
	sessions SessionManager
	catalog  BakeryCatalog
	history  OrderHistory
	validate *validator.Validate
	logger   *zap.Logger
}

func NewController(sessions SessionManager, catalog BakeryCatalog, history OrderHistory, logger *zap.Logger) *Controller {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Controller{
		sessions: sessions,
		catalog:  catalog,
		history:  history,
		validate: validate,
		logger:   logger,
	}
}

func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

func (c *Controller) ListBakeries(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	bakeries, err := c.catalog.SearchBakeries(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	response := dto.BakeriesResponse{
		TraceID:  traceID,
		Bakeries: make([]dto.BakeryResponse, 0, len(bakeries)),
		Count:    len(bakeries),
	}
	for _, b := range bakeries {
		response.Bakeries = append(response.Bakeries, toBakeryResponse(b))
	}

	c.writeJSON(w, http.StatusOK, response)
}

func (c *Controller) CreateSession(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	s := c.sessions.Create()
	c.writeJSON(w, http.StatusCreated, dto.SessionResponse{
		TraceID:   traceID,
		SessionID: s.ID,
	})
}

func (c *Controller) CloseSession(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if err := c.sessions.Close(chi.URLParam(r, "sessionId")); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.LoginRequest
	if !c.decode(w, r, traceID, &req) {
		return
	}

	if err := s.Login(req.User, req.Password); err != nil {
		logger.Warn("admin login rejected", zap.String("sessionId", s.ID))
		c.handleError(w, traceID, err, logger)
		return
	}

	logger.Info("admin logged in", zap.String("sessionId", s.ID))
	c.writeJSON(w, http.StatusOK, sessionResponse(traceID, s))
}

func (c *Controller) SelectBakery(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.SelectBakeryRequest
	if !c.decode(w, r, traceID, &req) {
		return
	}

	bakery, err := c.catalog.FindBakery(r.Context(), req.BakeryID)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	if err := s.SelectBakery(r.Context(), bakery); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, sessionResponse(traceID, s))
}

func (c *Controller) Menu(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	snapshot := s.Engine.Snapshot()
	bakery, selected := snapshot.Selection.Bakery()
	if !selected {
		c.handleError(w, traceID, apperrors.NewConflictError("no bakery selected"), logger)
		return
	}

	items := cart.FilterMenu(snapshot.MenuItems, r.URL.Query().Get("q"))
	response := dto.MenuResponse{
		TraceID: traceID,
		Bakery:  toBakeryResponse(bakery),
		Items:   make([]dto.MenuItemResponse, 0, len(items)),
		Count:   len(items),
	}
	for _, item := range items {
		response.Items = append(response.Items, toMenuItemResponse(item))
	}

	c.writeJSON(w, http.StatusOK, response)
}

func (c *Controller) Cart(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	c.writeJSON(w, http.StatusOK, cartResponse(traceID, s.Cart))
}

func (c *Controller) AddCartItem(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.AddCartItemRequest
	if !c.decode(w, r, traceID, &req) {
		return
	}

	if _, err := s.AddToCart(req.MenuItemID); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, cartResponse(traceID, s.Cart))
}

func (c *Controller) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	if err := s.RemoveFromCart(chi.URLParam(r, "itemId")); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, cartResponse(traceID, s.Cart))
}

func (c *Controller) ClearCart(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	s.Cart.Clear()
	c.writeJSON(w, http.StatusOK, cartResponse(traceID, s.Cart))
}

func (c *Controller) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.PlaceOrderRequest
	if r.ContentLength != 0 && !c.decode(w, r, traceID, &req) {
		return
	}

	order, err := s.PlaceOrder(r.Context(), req.Table)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.PlaceOrderResponse{
		TraceID: traceID,
		Order:   toOrderResponse(order),
	})
}

func (c *Controller) Orders(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	s, ok := c.session(w, r, traceID, logger)
	if !ok {
		return
	}

	snapshot := s.Engine.Snapshot()
	if !snapshot.Selection.IsSelected() {
		c.handleError(w, traceID, apperrors.NewConflictError("no bakery selected"), logger)
		return
	}

	response := dto.OrdersResponse{
		TraceID: traceID,
		Orders:  make([]dto.OrderResponse, 0, len(snapshot.Orders)),
		Count:   len(snapshot.Orders),
	}
	for _, order := range snapshot.Orders {
		response.Orders = append(response.Orders, toOrderResponse(order))
	}

	c.writeJSON(w, http.StatusOK, response)
}

// session resolves the {sessionId} path parameter, writing the error response
// itself when the session does not exist.
func (c *Controller) session(w http.ResponseWriter, r *http.Request, traceID string, logger *zap.Logger) (*storefront.Session, bool) {
	s, err := c.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return nil, false
	}
	return s, true
}

// decode reads a JSON body into req and runs the struct validation tags.
func (c *Controller) decode(w http.ResponseWriter, r *http.Request, traceID string, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}

	if err := c.validate.Struct(req); err != nil {
		var details []apperrors.ValidationDetail
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				details = append(details, apperrors.ValidationDetail{
					Field:   fe.Field(),
					Message: fieldMessage(fe),
				})
			}
		}
		c.writeValidationError(w, traceID, "validation failed", details...)
		return false
	}

	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "max", "gte":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

func (c *Controller) handleError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), false)
		return
	}

	if _, ok := apperrors.IsForbiddenError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusForbidden, "FORBIDDEN", err.Error(), false)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), false)
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusConflict, "CONFLICT", err.Error(), false)
		return
	}

	if re, ok := apperrors.IsRemoteError(err); ok {
		logger.Warn("remote store unavailable", zap.String("op", re.Op), zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusServiceUnavailable, "REMOTE_UNAVAILABLE", "remote store unavailable, try again", re.Retryable)
		return
	}

	if ie, ok := apperrors.IsInternalError(err); ok {
		logger.Error(ie.Message, zap.Error(ie.Cause))
		c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", false)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", false)
}

func (c *Controller) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code, message string, retryable bool) {
	c.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	})
}

func (c *Controller) writeValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    http.StatusBadRequest,
		Code:      "VALIDATION_ERROR",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
