package preferences

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"rosie/internal/middleware"
	"rosie/internal/ports/notify"
	"rosie/internal/ports/settings"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/me", func(mr chi.Router) {
		mr.Get("/settings", getSettingsHandler(svc))
		mr.Patch("/settings", patchSettingsHandler(svc))
		mr.Put("/push-token", putPushTokenHandler(svc))
	})
}

type settingsResponse struct {
	NotificationsEnabled bool   `json:"notifications_enabled"`
	SoundsEnabled        bool   `json:"sounds_enabled"`
	MusicEnabled         bool   `json:"music_enabled"`
	Language             string `json:"language"`
}

type patchSettingsRequest struct {
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	SoundsEnabled        *bool   `json:"sounds_enabled"`
	MusicEnabled         *bool   `json:"music_enabled"`
	Language             *string `json:"language"`
}

type pushTokenRequest struct {
	Token  string `json:"token"`
	Status string `json:"status"`
}

// getSettingsHandler godoc
// @Summary      Preferencias del usuario
// @Tags         me
// @Produce      json
// @Success      200  {object}  settingsResponse
// @Router       /me/settings [get]
func getSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		s, err := svc.Get(r.Context(), claims)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsResponse(s))
	}
}

// patchSettingsHandler godoc
// @Summary      Actualiza preferencias (solo los campos enviados)
// @Tags         me
// @Accept       json
// @Produce      json
// @Param        body  body  patchSettingsRequest  true  "campos a cambiar"
// @Success      200  {object}  settingsResponse
// @Router       /me/settings [patch]
func patchSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req patchSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		s, err := svc.Update(r.Context(), claims, settings.Patch{
			NotificationsEnabled: req.NotificationsEnabled,
			SoundsEnabled:        req.SoundsEnabled,
			MusicEnabled:         req.MusicEnabled,
			Language:             req.Language,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsResponse(s))
	}
}

// putPushTokenHandler godoc
// @Summary      Registra el push token del dispositivo
// @Tags         me
// @Accept       json
// @Produce      json
// @Param        body  body  pushTokenRequest  true  "token + estado del permiso"
// @Success      200  {object}  settingsResponse
// @Router       /me/push-token [put]
func putPushTokenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req pushTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		status := notify.PermissionStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if status == "" {
			status = notify.PermissionGranted
		}

		s, err := svc.RegisterPush(r.Context(), claims, notify.Registration{Token: req.Token, Status: status})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsResponse(s))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toSettingsResponse(s settings.Settings) settingsResponse {
	return settingsResponse{
		NotificationsEnabled: s.NotificationsEnabled,
		SoundsEnabled:        s.SoundsEnabled,
		MusicEnabled:         s.MusicEnabled,
		Language:             s.Language,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
