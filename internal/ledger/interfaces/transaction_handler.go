package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fintrackapp/fintrack/internal/ledger/domain"
	ledgerErrors "github.com/fintrackapp/fintrack/internal/ledger/errors"
)

type TransactionServiceInterface interface {
	Create(userID string, transaction *domain.Transaction) (float64, error)
	Update(userID, transactionID string, patch *domain.TransactionPatch) (*domain.Transaction, float64, error)
	Delete(userID, transactionID string) (*domain.Transaction, float64, error)
	ListTransactions(userID, transactionType string) ([]domain.Transaction, error)
}

type TransactionHandler struct {
	service      TransactionServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string)
}

func NewTransactionHandler(
	service TransactionServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string),
) *TransactionHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	if respondJSON == nil || respondError == nil {
		log.Fatal("Respond functions must not be nil")
		return nil
	}
	return &TransactionHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	transactionType := r.URL.Query().Get("type")
	if transactionType != "" && !domain.IsValidTransactionType(transactionType) {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction type")
		return
	}

	transactions, err := h.service.ListTransactions(userID, transactionType)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transactions retrieved successfully.",
		"data":    transactions,
	})
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var transaction domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&transaction); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, err := h.service.Create(userID, &transaction)
	if err != nil {
		if ledgerErrors.IsValidationError(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, ledgerErrors.ErrBalanceConflict) {
			h.respondError(w, http.StatusConflict, "Balance was modified concurrently, please retry")
			return
		}
		log.Println("Error during transaction creation:", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully created.",
		"data": map[string]interface{}{
			"transaction": transaction,
			"balance":     balance,
		},
	})
}

func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	transactionID := r.PathValue("transactionID")

	// The patch is a closed record: fields outside it (owner, id) fail
	// decoding instead of being filtered against an allow-list.
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	var patch domain.TransactionPatch
	if err := decoder.Decode(&patch); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid updates")
		return
	}
	if patch.IsEmpty() {
		h.respondError(w, http.StatusBadRequest, ledgerErrors.ErrEmptyPatch.Error())
		return
	}

	transaction, balance, err := h.service.Update(userID, transactionID, &patch)
	if err != nil {
		h.respondMutationError(w, err, "Failed to update transaction")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully updated.",
		"data": map[string]interface{}{
			"transaction": transaction,
			"balance":     balance,
		},
	})
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	transactionID := r.PathValue("transactionID")

	transaction, balance, err := h.service.Delete(userID, transactionID)
	if err != nil {
		h.respondMutationError(w, err, "Failed to delete transaction")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully deleted.",
		"data": map[string]interface{}{
			"transaction": transaction,
			"balance":     balance,
		},
	})
}

func (h *TransactionHandler) respondMutationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ledgerErrors.ErrTransactionNotFound):
		h.respondError(w, http.StatusNotFound, "Transaction not found")
	case ledgerErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledgerErrors.ErrBalanceConflict):
		h.respondError(w, http.StatusConflict, "Balance was modified concurrently, please retry")
	default:
		log.Println(fallback+":", err)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}
