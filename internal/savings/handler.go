package savings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type Handler struct {
	savingsService Service
}

func NewHandler(savingsService Service) *Handler {
	return &Handler{
		savingsService: savingsService,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

type goalResponse struct {
	Goal
	Progress float64 `json:"progress"`
}

func toGoalResponse(g Goal) goalResponse {
	return goalResponse{
		Goal:     g,
		Progress: g.Progress(),
	}
}

func (h *Handler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authorized")
		return
	}

	var req struct {
		Name          string     `json:"name"`
		TargetAmount  float64    `json:"target_amount"`
		CurrentAmount float64    `json:"current_amount"`
		DueDate       *time.Time `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newGoal, err := h.savingsService.CreateGoal(userID, req.Name, req.TargetAmount, req.CurrentAmount, req.DueDate)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName),
			errors.Is(err, ErrInvalidTargetAmount),
			errors.Is(err, ErrInvalidCurrentAmount):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Savings goal created successfully",
		"data":    toGoalResponse(*newGoal),
	})
}

func (h *Handler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authorized")
		return
	}

	goals, err := h.savingsService.ListGoals(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	responses := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		responses = append(responses, toGoalResponse(g))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   responses,
	})
}

func (h *Handler) HandleContribute(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authorized")
		return
	}
	goalID := r.PathValue("goalID")

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.savingsService.Contribute(userID, goalID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidContribution):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrGoalNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Contribution recorded successfully",
		"data":    toGoalResponse(*updated),
	})
}

func (h *Handler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authorized")
		return
	}
	goalID := r.PathValue("goalID")

	if err := h.savingsService.DeleteGoal(userID, goalID); err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Savings goal deleted successfully",
	})
}
