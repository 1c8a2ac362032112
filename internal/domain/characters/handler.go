package characters

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"rosie/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/characters", func(cr chi.Router) {
		cr.Get("/", listCharactersHandler(svc))
		cr.Put("/selected", selectCharacterHandler(svc))
	})
}

type characterResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
	Locked   bool   `json:"locked"`
	Selected bool   `json:"selected"`
}

type selectRequest struct {
	ID string `json:"id"`
}

// listCharactersHandler godoc
// @Summary      Catálogo de personajes
// @Tags         characters
// @Produce      json
// @Success      200  {array}  characterResponse
// @Router       /characters [get]
func listCharactersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context(), claims)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]characterResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toCharacterResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// selectCharacterHandler godoc
// @Summary      Elige personaje
// @Tags         characters
// @Accept       json
// @Produce      json
// @Param        body  body  selectRequest  true  "id"
// @Success      200  {object}  characterResponse
// @Failure      403  {string}  string
// @Router       /characters/selected [put]
func selectCharacterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := svc.Select(r.Context(), claims, req.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCharacterResponse(e))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrLocked):
		http.Error(w, "locked", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toCharacterResponse(e Entry) characterResponse {
	return characterResponse{
		ID:       e.ID,
		Name:     e.Name,
		ImageURL: e.ImageURL,
		Locked:   e.Locked,
		Selected: e.Selected,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
