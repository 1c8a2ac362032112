package petsync

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"rosie/internal/domain/mood"
	"rosie/internal/domain/pets"
	"rosie/internal/middleware"
	"rosie/internal/platform/logger"
	"rosie/internal/ports/audio"
)

type HandlerOptions struct {
	// DevMenu habilita PUT /pet/state.
	DevMenu bool
	// Cues es opcional: sin él el websocket solo manda snapshots.
	Cues   audio.CueSource
	Logger logger.Logger
}

func RegisterRoutes(r chi.Router, ctrl *Controller, opts HandlerOptions) {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	ws := newWSHandler(ctrl, opts.Cues, opts.Logger)

	r.Route("/pet", func(pr chi.Router) {
		pr.Get("/", getPetHandler(ctrl))
		pr.Post("/actions/{action}", applyActionHandler(ctrl))
		if opts.DevMenu {
			pr.Put("/state", forceStateHandler(ctrl))
		}
		pr.Get("/ws", ws.serve)
	})
}

type petResponse struct {
	Name            string     `json:"name"`
	State           mood.State `json:"state"`
	LastInteraction int64      `json:"last_interaction"`
	UserEmail       string     `json:"user_email,omitempty"`
}

type actionResponse struct {
	Pet      petResponse `json:"pet"`
	Previous mood.State  `json:"previous,omitempty"`
	Changed  bool        `json:"changed"`
}

type forceStateRequest struct {
	State string `json:"state"`
}

// getPetHandler godoc
// @Summary      Estado actual de la mascota
// @Tags         pet
// @Produce      json
// @Success      200  {object}  petResponse
// @Failure      401  {string}  string
// @Router       /pet [get]
func getPetHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rec, err := ctrl.Current(r.Context(), claims)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(rec))
	}
}

// applyActionHandler godoc
// @Summary      Aplica una acción (feed, play, rest)
// @Tags         pet
// @Produce      json
// @Param        action  path  string  true  "feed | play | rest"
// @Success      200  {object}  actionResponse
// @Failure      400  {string}  string
// @Failure      401  {string}  string
// @Failure      503  {string}  string
// @Router       /pet/actions/{action} [post]
func applyActionHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		action, err := mood.ParseAction(chi.URLParam(r, "action"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := ctrl.ApplyAction(r.Context(), claims, action)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toActionResponse(res))
	}
}

// forceStateHandler godoc
// @Summary      Fija el estado (menú de desarrollo)
// @Tags         pet
// @Accept       json
// @Produce      json
// @Param        body  body  forceStateRequest  true  "estado"
// @Success      200  {object}  actionResponse
// @Router       /pet/state [put]
func forceStateHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req forceStateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		st, err := mood.ParseState(req.State)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := ctrl.ForceState(r.Context(), claims, st)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toActionResponse(res))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, mood.ErrUnknownAction), errors.Is(err, mood.ErrUnknownState):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrPersist):
		http.Error(w, "pet record unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPetResponse(rec pets.Record) petResponse {
	return petResponse{
		Name:            rec.Name,
		State:           rec.State,
		LastInteraction: rec.LastInteraction,
		UserEmail:       rec.UserEmail,
	}
}

func toActionResponse(res Result) actionResponse {
	return actionResponse{
		Pet:      toPetResponse(res.Record),
		Previous: res.Previous,
		Changed:  res.Changed,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
