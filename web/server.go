package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"weather-forecast/models"
	"weather-forecast/session"
	"weather-forecast/views"
)

// Server HTTP: форма на "/", результаты на "/forecast" и JSON API.
type Server struct {
	submitter *session.Submitter
	renderer  *views.Renderer
	mux       *http.ServeMux
}

func NewServer(submitter *session.Submitter, renderer *views.Renderer) *Server {
	s := &Server{submitter: submitter, renderer: renderer, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) Router() http.Handler { return s.mux }

func (s *Server) routes() {
	// Представления
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /{$}", s.handleSubmit)
	s.mux.HandleFunc("GET /forecast", s.handleForecast)

	// API
	s.mux.HandleFunc("POST /api/forecast", s.handleAPIForecast)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
}

// GET /: пустая форма
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderInput(w, views.NewInputView("", "", ""), http.StatusOK)
}

// POST /: отправка формы. При успехе переход на /forecast с токеном ответа.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректная форма", http.StatusBadRequest)
		return
	}

	view := views.NewInputView(r.FormValue("latitude"), r.FormValue("longitude"), r.FormValue("days"))
	token, err := s.submitter.Submit(r.Context(), view)
	if err != nil {
		var required *views.RequiredFieldError
		if errors.As(err, &required) {
			s.renderInput(w, view, http.StatusUnprocessableEntity)
			return
		}
		s.renderInput(w, view, http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, "/forecast?state="+url.QueryEscape(token), http.StatusSeeOther)
}

// GET /forecast: результаты. Без токена или с прочитанным токеном - пустое состояние.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	resp, _ := s.submitter.Handoffs().Take(r.URL.Query().Get("state"))

	var buf bytes.Buffer
	if err := s.renderer.RenderDisplay(&buf, views.NewDisplayView(resp)); err != nil {
		slog.Error("ошибка рендеринга прогноза", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

const maxAPIBodyBytes = 1 << 16

type apiForecastRequest struct {
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
	Days      json.RawMessage `json:"days"`
}

// POST /api/forecast: тот же запрос, ответ сервера прогнозов без изменений
func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	r.Body = http.MaxBytesReader(w, r.Body, maxAPIBodyBytes)

	var in apiForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "некорректный JSON", Details: err.Error()})
		return
	}

	view := views.NewInputView(rawString(in.Latitude), rawString(in.Longitude), rawString(in.Days))
	if err := view.Validate(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := s.submitter.Fetch(r.Context(), view.Request())
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(models.ErrorResponse{
			Error:   views.FetchFailedMessage,
			Details: err.Error(),
		})
		return
	}

	json.NewEncoder(w).Encode(resp)
}

// GET /api/health: проверка здоровья сервиса
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":           "ok",
		"timestamp":        time.Now().Format(time.RFC3339),
		"provider":         s.submitter.ProviderName(),
		"pending_handoffs": s.submitter.Handoffs().Len(),
	})
}

func (s *Server) renderInput(w http.ResponseWriter, view *views.InputView, status int) {
	var buf bytes.Buffer
	if err := s.renderer.RenderInput(&buf, view); err != nil {
		slog.Error("ошибка рендеринга формы", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// rawString принимает и числа, и строки: 60.1 и "60.1" дают "60.1"
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
