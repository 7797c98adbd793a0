package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fintrackapp/fintrack/internal/ledger/domain"
	ledgerErrors "github.com/fintrackapp/fintrack/internal/ledger/errors"
)

func authenticatedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), "userID", "user-1")
	return req.WithContext(ctx)
}

func TestCreateTransaction_Success(t *testing.T) {
	mockService := &MockTransactionService{Balance: 100}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	req := authenticatedRequest(http.MethodPost, "/transactions", `{"type":"income","amount":100,"category":"Salary"}`)
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "user-1", mockService.LastUserID)

	var response map[string]interface{}
	err := json.NewDecoder(res.Body).Decode(&response)
	assert.NoError(t, err)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, 100.0, data["balance"])
}

func TestCreateTransaction_WithoutIdentity(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(`{"type":"income","amount":10,"category":"Salary"}`))
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
}

func TestCreateTransaction_ValidationErrorMapsTo400(t *testing.T) {
	mockService := &MockTransactionService{Err: ledgerErrors.ErrInvalidAmount}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	req := authenticatedRequest(http.MethodPost, "/transactions", `{"type":"income","amount":-3,"category":"Salary"}`)
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var response map[string]interface{}
	err := json.NewDecoder(res.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, "Amount must be greater than zero", response["message"])
}

func TestCreateTransaction_ConflictMapsTo409(t *testing.T) {
	mockService := &MockTransactionService{Err: ledgerErrors.ErrBalanceConflict}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	req := authenticatedRequest(http.MethodPost, "/transactions", `{"type":"income","amount":10,"category":"Salary"}`)
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	assert.Equal(t, http.StatusConflict, w.Result().StatusCode)
}

func TestUpdateTransaction_RejectsUnknownPatchFields(t *testing.T) {
	mockService := &MockTransactionService{}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	req := authenticatedRequest(http.MethodPatch, "/transactions/tx-1", `{"owner":"someone-else"}`)
	req.SetPathValue("transactionID", "tx-1")
	w := httptest.NewRecorder()
	handler.UpdateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var response map[string]interface{}
	err := json.NewDecoder(res.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, "Invalid updates", response["message"])
	// the service was never reached
	assert.Nil(t, mockService.LastPatch)
}

func TestUpdateTransaction_RejectsEmptyPatch(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	req := authenticatedRequest(http.MethodPatch, "/transactions/tx-1", `{}`)
	req.SetPathValue("transactionID", "tx-1")
	w := httptest.NewRecorder()
	handler.UpdateTransaction(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestUpdateTransaction_NotFoundMapsTo404(t *testing.T) {
	mockService := &MockTransactionService{Err: ledgerErrors.ErrTransactionNotFound}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	req := authenticatedRequest(http.MethodPatch, "/transactions/tx-404", `{"amount":25}`)
	req.SetPathValue("transactionID", "tx-404")
	w := httptest.NewRecorder()
	handler.UpdateTransaction(w, req)

	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
	assert.Equal(t, "tx-404", mockService.LastTransactionID)
}

func TestDeleteTransaction_Success(t *testing.T) {
	mockService := &MockTransactionService{
		Balance: 60,
		Transactions: []domain.Transaction{
			{ID: "tx-1", UserID: "user-1", Type: domain.TypeExpense, Amount: 40, Category: "Groceries"},
		},
	}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	req := authenticatedRequest(http.MethodDelete, "/transactions/tx-1", "")
	req.SetPathValue("transactionID", "tx-1")
	w := httptest.NewRecorder()
	handler.DeleteTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response map[string]interface{}
	err := json.NewDecoder(res.Body).Decode(&response)
	assert.NoError(t, err)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, 60.0, data["balance"])
}

func TestGetTransactions_InvalidTypeFilter(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	req := authenticatedRequest(http.MethodGet, "/transactions?type=transfer", "")
	w := httptest.NewRecorder()
	handler.GetTransactions(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}
