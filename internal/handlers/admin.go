package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
)

type AdminHandler struct {
	service *app.Service
}

func NewAdminHandler(service *app.Service) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	token, sess, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"token":        token,
		"username":     sess.Username,
		"is_god_admin": sess.IsGodAdmin,
		"event_access": sess.EventAccess,
	}
	// Single-event admins get a deep-link hint, mirroring the login flow
	// that drops them straight onto their event.
	if !sess.IsGodAdmin && len(sess.EventAccess) == 1 {
		resp["single_event"] = sess.EventAccess[0]
	}

	writeJSON(w, resp)
}

func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), h.service.TokenFromRequest(r)); err != nil {
		logger.Error.Printf("Logout failed: %v", err)
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

func (h *AdminHandler) HandleLock(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	if !ok {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ev, changed, err := h.service.ToggleLock(h.service.IdentityFromRequest(r), id, req.Locked)
	if err != nil {
		writeError(w, err)
		return
	}

	if changed {
		state := "unlocked"
		if req.Locked {
			state = "locked"
		}
		metrics.LockTogglesTotal.WithLabelValues(strconv.FormatInt(id, 10), state).Inc()
	}

	writeJSON(w, map[string]interface{}{
		"event":   ev,
		"changed": changed,
	})
}
