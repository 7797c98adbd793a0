package budget

import (
	"encoding/json"
	"errors"
	"net/http"
)

type Handler struct {
	budgetService Service
}

func NewHandler(budgetService Service) *Handler {
	return &Handler{
		budgetService: budgetService,
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

func (h *Handler) HandleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authorized")
		return
	}

	var req struct {
		Category string  `json:"category"`
		Limit    float64 `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newBudget, err := h.budgetService.CreateBudget(userID, req.Category, req.Limit)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrInvalidLimit):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrCategoryAlreadyExists):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Budget created successfully",
		"data":    newBudget,
	})
}

func (h *Handler) HandleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authorized")
		return
	}

	statuses, err := h.budgetService.ListBudgets(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   statuses,
	})
}

func (h *Handler) HandleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authorized")
		return
	}
	budgetID := r.PathValue("budgetID")

	var req struct {
		Limit float64 `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.budgetService.UpdateBudgetLimit(userID, budgetID, req.Limit)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidLimit):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrBudgetNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget updated successfully",
		"data":    updated,
	})
}

func (h *Handler) HandleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authorized")
		return
	}
	budgetID := r.PathValue("budgetID")

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget deleted successfully",
	})
}
