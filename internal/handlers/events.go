package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/access"
	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
)

type EventHandler struct {
	service *app.Service
}

func NewEventHandler(service *app.Service) *EventHandler {
	return &EventHandler{
		service: service,
	}
}

func eventID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *EventHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Store.ListActiveEvents()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"events": events,
	})
}

func (h *EventHandler) HandleEventSheet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "200"
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(
			"/api/v1/events/{id}",
			r.Method,
			status,
		).Observe(time.Since(start).Seconds())
	}()

	id, ok := eventID(r)
	if !ok {
		status = "400"
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	sheet, err := h.service.EventSheet(h.service.IdentityFromRequest(r), id)
	if err != nil {
		status = "error"
		writeError(w, err)
		return
	}

	writeJSON(w, sheet)
}

func (h *EventHandler) HandleListJudges(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	if !ok {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	// The select-judge step is still gated by the event lock.
	ev, err := h.service.Store.GetEvent(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.CheckView(h.service.IdentityFromRequest(r), ev); err != nil {
		writeError(w, err)
		return
	}

	judges, err := h.service.Store.ListJudges()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"event":  ev,
		"judges": judges,
	})
}

func (h *EventHandler) HandleCategorySheet(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	if !ok {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	category := r.PathValue("category")
	if category == "" {
		http.Error(w, "Invalid category", http.StatusBadRequest)
		return
	}

	judgeID, err := strconv.ParseInt(r.URL.Query().Get("judge_id"), 10, 64)
	if err != nil || judgeID <= 0 {
		logger.Debug.Printf("Bad judge_id on category sheet request: %s", r.URL.RawQuery)
		http.Error(w, "Invalid judge ID", http.StatusBadRequest)
		return
	}

	sheet, err := h.service.CategorySheet(h.service.IdentityFromRequest(r), id, category, judgeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, sheet)
}
