package pricing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	models "github.com/glkeru/hotel/pricing/internal/models"
	service "github.com/glkeru/hotel/pricing/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Services struct {
	Quotes    *service.QuoteService
	Rules     *service.RuleService
	Overrides *service.OverrideManager
	Events    *service.QuickEventService
}

type Handler struct {
	router *mux.Router
	serv   Services
	secret []byte
	logger *zap.Logger
}

type QuoteRequest struct {
	RoomTypeID       string  `json:"roomTypeId"`
	TargetDate       string  `json:"targetDate"`
	OccupancyPercent float64 `json:"occupancyPercent"`
}

type CreateOverrideRequest struct {
	service.OverrideSpec
	Reason string `json:"reason"`
}

type UpdateOverrideRequest struct {
	service.OverridePatch
	Reason string `json:"reason"`
}

type RevokeRequest struct {
	Reason string `json:"reason"`
}

type QuickEventResponse struct {
	Event    models.CalendarEvent `json:"event"`
	Override *models.PricingRule  `json:"override"`
	Error    string               `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewHandler(serv Services, secret []byte, logger *zap.Logger) *Handler {
	router := mux.NewRouter()
	handler := &Handler{router, serv, secret, logger}
	router.Use(MiddlewareLog(), MiddlewareJSON())

	router.HandleFunc("/quote", handler.QuoteHandler).Methods(http.MethodPost)
	router.HandleFunc("/rules", handler.GetAllRulesHandler).Methods(http.MethodGet)
	router.HandleFunc("/rules/active", handler.GetActiveRulesHandler).Methods(http.MethodGet)
	router.HandleFunc("/rule/{id}", handler.GetRuleHandler).Methods(http.MethodGet)
	router.HandleFunc("/rule/{id}/audit", handler.GetRuleAuditHandler).Methods(http.MethodGet)
	router.HandleFunc("/rule", handler.auth(handler.CreateRuleHandler)).Methods(http.MethodPost)

	router.HandleFunc("/overrides", handler.ListOverridesHandler).Methods(http.MethodGet)
	router.HandleFunc("/overrides", handler.auth(handler.CreateOverrideHandler)).Methods(http.MethodPost)
	router.HandleFunc("/overrides/{id}", handler.auth(handler.UpdateOverrideHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/overrides/{id}/revoke", handler.auth(handler.RevokeOverrideHandler)).Methods(http.MethodPost)

	router.HandleFunc("/events/quick", handler.auth(handler.QuickEventHandler)).Methods(http.MethodPost)
	router.HandleFunc("/events", handler.ListEventsHandler).Methods(http.MethodGet)
	router.HandleFunc("/event/{id}", handler.GetEventHandler).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return handler
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(w, req)
}

func (h *Handler) Log(msg string, service string, err error) {
	h.logger.Error(msg,
		zap.String("service", service),
		zap.Error(err),
	)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrStorage):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	j, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	w.Write(j)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{msg})
}

func (h *Handler) fail(w http.ResponseWriter, service string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.Log("Request failed", service, err)
	}
	writeError(w, status, err.Error())
}

func (h *Handler) decode(w http.ResponseWriter, req *http.Request, service string, v any) bool {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		h.Log("Get request body", service, err)
		writeError(w, http.StatusBadRequest, "body is empty")
		return false
	}
	defer req.Body.Close()
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "body is not correct: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, req *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

// дата как 2006-01-02 или RFC3339
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: "targetDate", Reason: "expected YYYY-MM-DD or RFC3339"}
	}
	return t, nil
}

// Расчет цены
func (h *Handler) QuoteHandler(w http.ResponseWriter, req *http.Request) {
	var q QuoteRequest
	if !h.decode(w, req, "QuoteHandler", &q) {
		return
	}
	target, err := parseDate(q.TargetDate)
	if err != nil {
		h.fail(w, "QuoteHandler", err)
		return
	}
	quote, err := h.serv.Quotes.Quote(req.Context(), q.RoomTypeID, target, q.OccupancyPercent)
	if err != nil {
		h.fail(w, "QuoteHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Получить все правила
func (h *Handler) GetAllRulesHandler(w http.ResponseWriter, req *http.Request) {
	rules, err := h.serv.Rules.ListRules(req.Context())
	if err != nil {
		h.fail(w, "GetAllRulesHandler", err)
		return
	}
	if rules == nil {
		rules = []models.PricingRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

// Получить активные правила
func (h *Handler) GetActiveRulesHandler(w http.ResponseWriter, req *http.Request) {
	rules, err := h.serv.Rules.ListActiveRules(req.Context())
	if err != nil {
		h.fail(w, "GetActiveRulesHandler", err)
		return
	}
	if rules == nil {
		rules = []models.PricingRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

// Получить правило
func (h *Handler) GetRuleHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	rule, err := h.serv.Rules.GetRule(req.Context(), id)
	if err != nil {
		h.fail(w, "GetRuleHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) GetRuleAuditHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	entries, err := h.serv.Rules.RuleAudit(req.Context(), id)
	if err != nil {
		h.fail(w, "GetRuleAuditHandler", err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Создать обычное правило
func (h *Handler) CreateRuleHandler(w http.ResponseWriter, req *http.Request) {
	var rule models.PricingRule
	if !h.decode(w, req, "CreateRuleHandler", &rule) {
		return
	}
	created, err := h.serv.Rules.CreateRule(req.Context(), rule, ActorFrom(req.Context()))
	if err != nil {
		h.fail(w, "CreateRuleHandler", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Активные override для панели
func (h *Handler) ListOverridesHandler(w http.ResponseWriter, req *http.Request) {
	active, err := h.serv.Overrides.ListActive(req.Context())
	if err != nil {
		h.fail(w, "ListOverridesHandler", err)
		return
	}
	if active == nil {
		active = []models.ActiveOverride{}
	}
	writeJSON(w, http.StatusOK, active)
}

func (h *Handler) CreateOverrideHandler(w http.ResponseWriter, req *http.Request) {
	var body CreateOverrideRequest
	if !h.decode(w, req, "CreateOverrideHandler", &body) {
		return
	}
	rule, err := h.serv.Overrides.CreateOverride(req.Context(), body.OverrideSpec, ActorFrom(req.Context()), body.Reason)
	if err != nil {
		h.fail(w, "CreateOverrideHandler", err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *Handler) UpdateOverrideHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	var body UpdateOverrideRequest
	if !h.decode(w, req, "UpdateOverrideHandler", &body) {
		return
	}
	rule, err := h.serv.Overrides.UpdateOverride(req.Context(), id, body.OverridePatch, ActorFrom(req.Context()), body.Reason)
	if err != nil {
		h.fail(w, "UpdateOverrideHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) RevokeOverrideHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	var body RevokeRequest
	if !h.decode(w, req, "RevokeOverrideHandler", &body) {
		return
	}
	rule, err := h.serv.Overrides.RevokeOverride(req.Context(), id, ActorFrom(req.Context()), body.Reason)
	if err != nil {
		h.fail(w, "RevokeOverrideHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// Быстрое событие: событие календаря и override
func (h *Handler) QuickEventHandler(w http.ResponseWriter, req *http.Request) {
	var body service.QuickEventRequest
	if !h.decode(w, req, "QuickEventHandler", &body) {
		return
	}
	event, rule, err := h.serv.Events.CreateQuickEvent(req.Context(), body, ActorFrom(req.Context()))
	if err == nil {
		writeJSON(w, http.StatusCreated, QuickEventResponse{Event: event, Override: rule})
		return
	}
	// событие сохранено, override или связь - нет
	if event.ID != uuid.Nil {
		h.Log("Quick event partially created", "QuickEventHandler", err)
		writeJSON(w, http.StatusMultiStatus, QuickEventResponse{Event: event, Override: rule, Error: err.Error()})
		return
	}
	h.fail(w, "QuickEventHandler", err)
}

func (h *Handler) ListEventsHandler(w http.ResponseWriter, req *http.Request) {
	events, err := h.serv.Events.ListEvents(req.Context())
	if err != nil {
		h.fail(w, "ListEventsHandler", err)
		return
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEventHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	event, err := h.serv.Events.GetEvent(req.Context(), id)
	if err != nil {
		h.fail(w, "GetEventHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
