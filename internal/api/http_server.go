package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fairway/internal/config"
	"fairway/internal/database"
	"fairway/internal/export"
	"fairway/internal/metrics"
	"fairway/internal/models"
	"fairway/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking core to the browser widget.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings *service.BookingService
	exporter *export.Exporter
	server   *http.Server
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, bookings *service.BookingService, exporter *export.Exporter, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, bookings: bookings, exporter: exporter, logger: logger}

	mux.HandleFunc("/api/v1/days/", srv.handleDayStatus)
	mux.HandleFunc("/api/v1/slots", srv.handleSlots)
	mux.HandleFunc("/api/v1/sessions", srv.handleCreateSession)
	mux.HandleFunc("/api/v1/sessions/", srv.handleSession)
	mux.HandleFunc("/api/v1/cancellations", srv.handleCancel)
	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/admin/export", srv.requireAdmin(srv.handleExport))
	mux.HandleFunc("/healthz", srv.handleHealth)

	limiter := newRateLimiter(cfg.RateLimit)
	handler := srv.loggingMiddleware(limiter.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// GET /api/v1/days/{date}/status
func (s *HTTPServer) handleDayStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("day_status")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/days/")
	dateStr, ok := strings.CutSuffix(rest, "/status")
	if !ok || dateStr == "" || strings.Contains(dateStr, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	status, err := s.bookings.DayStatus(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": dateStr, "status": status})
}

// GET /api/v1/slots?date=YYYY-MM-DD[&time=HH:MM]
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	if startTime := strings.TrimSpace(r.URL.Query().Get("time")); startTime != "" {
		remaining, err := s.bookings.SlotAvailability(r.Context(), date, startTime)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"date": dateStr, "time": startTime, "remaining": remaining})
		return
	}

	type slotInfo struct {
		Time      string `json:"time"`
		Remaining int    `json:"remaining"`
	}
	slots := make([]slotInfo, 0)
	for _, slot := range s.bookings.SlotTimes() {
		remaining, err := s.bookings.SlotAvailability(r.Context(), date, slot)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		slots = append(slots, slotInfo{Time: slot, Remaining: remaining})
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": dateStr, "slots": slots})
}

// POST /api/v1/sessions
func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_session")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session, err := s.bookings.NewSession(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session_id": session.SessionID})
}

// handleSession routes /api/v1/sessions/{id}/... subresources.
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sessionID := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "slots":
		s.handleSessionSlots(w, r, sessionID)
	case len(parts) == 3 && parts[1] == "slots":
		s.handleSessionSlotIndex(w, r, sessionID, parts[2])
	case len(parts) == 2 && parts[1] == "submit":
		s.handleSubmit(w, r, sessionID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type stageRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
	Lane string `json:"lane"`
}

func (s *HTTPServer) handleSessionSlots(w http.ResponseWriter, r *http.Request, sessionID string) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("staged_slots")
		session, err := s.bookings.Session(r.Context(), sessionID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeStagedSlots(w, http.StatusOK, session)

	case http.MethodPost:
		metrics.IncHTTP("stage_slot")
		var req stageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		date, err := time.Parse(models.DateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}

		session, err := s.bookings.StageSlot(r.Context(), sessionID, models.SlotSelection{
			Date: date,
			Time: strings.TrimSpace(req.Time),
			Lane: models.Lane(req.Lane),
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeStagedSlots(w, http.StatusOK, session)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleSessionSlotIndex(w http.ResponseWriter, r *http.Request, sessionID, indexStr string) {
	metrics.IncHTTP("remove_slot")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	index, err := strconv.Atoi(indexStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot index")
		return
	}

	session, err := s.bookings.RemoveSlot(r.Context(), sessionID, index)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeStagedSlots(w, http.StatusOK, session)
}

func (s *HTTPServer) writeStagedSlots(w http.ResponseWriter, status int, session *models.BookingSession) {
	type stagedSlot struct {
		Date string `json:"date"`
		Time string `json:"time"`
		Lane string `json:"lane"`
	}
	slots := make([]stagedSlot, 0, len(session.Selections))
	for _, sel := range session.Selections {
		slots = append(slots, stagedSlot{
			Date: sel.Date.Format(models.DateLayout),
			Time: sel.Time,
			Lane: string(sel.Lane),
		})
	}
	writeJSON(w, status, map[string]any{
		"session_id":  session.SessionID,
		"slots":       slots,
		"total_price": s.bookings.TotalPrice(session),
	})
}

type submitRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Club   string `json:"club"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
}

// POST /api/v1/sessions/{id}/submit
func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("submit")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	confirmation, err := s.bookings.Submit(r.Context(), sessionID, models.Contact{
		Name:   req.Name,
		Phone:  req.Phone,
		Email:  req.Email,
		Club:   req.Club,
		Gender: req.Gender,
		Age:    req.Age,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, confirmation)
}

type cancelRequest struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Lane  string `json:"lane"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// POST /api/v1/cancellations
func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := time.Parse(models.DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	err = s.bookings.Cancel(r.Context(), service.LookupRequest{
		Date:  date,
		Time:  strings.TrimSpace(req.Time),
		Lane:  models.Lane(req.Lane),
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
}

// GET /api/v1/reservations?phone=&email=
func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	email := strings.TrimSpace(r.URL.Query().Get("email"))

	reservations, err := s.bookings.ActiveReservations(r.Context(), phone, email, time.Now())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	type reservationInfo struct {
		Date string `json:"date"`
		Time string `json:"time"`
		Lane string `json:"lane"`
		Name string `json:"name"`
	}
	out := make([]reservationInfo, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, reservationInfo{
			Date: r.Date.Format(models.DateLayout),
			Time: r.StartTime,
			Lane: string(r.Lane),
			Name: r.Name,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": out})
}

// GET /admin/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from, err := time.Parse(models.DateLayout, strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse(models.DateLayout, strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}

	filePath, err := s.exporter.ExportRange(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filePath)))
	http.ServeFile(w, r, filePath)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps core errors onto user-facing HTTP rejections, one
// per precondition in the submission protocol.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "booking session not found")
	case errors.Is(err, service.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, "no slots chosen")
	case errors.Is(err, service.ErrIncompleteContact), errors.Is(err, service.ErrInvalidAge):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownLane), errors.Is(err, service.ErrUnknownSlot), errors.Is(err, service.ErrOutOfSeason):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotAvailable):
		writeError(w, http.StatusConflict, "one or more selected times are no longer available")
	case errors.Is(err, service.ErrNoMatch), errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "reservation not found")
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "storage error, try again")
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
