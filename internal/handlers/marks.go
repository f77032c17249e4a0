package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
)

type MarkHandler struct {
	service *app.Service
}

func NewMarkHandler(service *app.Service) *MarkHandler {
	return &MarkHandler{
		service: service,
	}
}

type saveMarksRequest struct {
	JudgeID int64           `json:"judge_id"`
	Marks   []app.MarkInput `json:"marks"`
}

func (h *MarkHandler) HandleSaveMarks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "200"
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(
			"/api/v1/events/{id}/marks",
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

	var req saveMarksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "400"
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.JudgeID <= 0 {
		status = "400"
		http.Error(w, "Invalid judge ID", http.StatusBadRequest)
		return
	}
	if len(req.Marks) == 0 {
		status = "400"
		http.Error(w, "No marks to save", http.StatusBadRequest)
		return
	}

	identity := h.service.IdentityFromRequest(r)
	if err := h.service.SaveMarks(identity, id, req.JudgeID, req.Marks); err != nil {
		status = "error"
		writeError(w, err)
		return
	}

	metrics.MarksSavedTotal.WithLabelValues(
		strconv.FormatInt(id, 10),
		strconv.FormatInt(req.JudgeID, 10),
	).Add(float64(len(req.Marks)))

	logger.Debug.Printf("Saved %d mark(s) for event %d judge %d", len(req.Marks), id, req.JudgeID)

	writeJSON(w, map[string]interface{}{
		"saved": len(req.Marks),
	})
}

func (h *MarkHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	if !ok {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	results, err := h.service.Results(h.service.IdentityFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, results)
}

func (h *MarkHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	standings, err := h.service.Overview(h.service.IdentityFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"events": standings,
	})
}
