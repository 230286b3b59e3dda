package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/pagination"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest represents the payload for creating or replacing a
// transaction. The sign of Amount is normalised from Type.
type TransactionRequest struct {
	Description       string                 `json:"description" binding:"required,max=500"`
	Amount            decimal.Decimal        `json:"amount"`
	Type              models.TransactionType `json:"type" binding:"required,transaction_type"`
	Date              string                 `json:"date" binding:"required,iso_date"`
	Category          string                 `json:"category" binding:"max=100"`
	AccountID         string                 `json:"account_id" binding:"omitempty,uuid"`
	InstallmentNumber *int                   `json:"installment_number" binding:"omitempty,min=1"`
	TotalInstallments *int                   `json:"total_installments" binding:"omitempty,min=1"`
}

func (r TransactionRequest) model() *models.Transaction {
	return &models.Transaction{
		Description:       r.Description,
		Amount:            r.Amount,
		Type:              r.Type,
		Date:              r.Date,
		Category:          r.Category,
		AccountID:         r.AccountID,
		InstallmentNumber: r.InstallmentNumber,
		TotalInstallments: r.TotalInstallments,
	}
}

// SeriesRequest represents a purchase split into monthly installments,
// generated from InstallmentNumber through TotalInstallments.
type SeriesRequest struct {
	Description       string                 `json:"description" binding:"required,max=500"`
	Amount            decimal.Decimal        `json:"amount"`
	Type              models.TransactionType `json:"type" binding:"required,transaction_type"`
	Date              string                 `json:"date" binding:"required,iso_date"`
	Category          string                 `json:"category" binding:"max=100"`
	AccountID         string                 `json:"account_id" binding:"omitempty,uuid"`
	InstallmentNumber int                    `json:"installment_number"`
	TotalInstallments int                    `json:"total_installments"`
}

// CreateTransaction handles the creation of a new transaction
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.transactionService.Save(c.Request.Context(), uid, req.model())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// CreateSeries handles installment purchases. Nothing is written when the
// installment range is invalid.
func (h *TransactionHandler) CreateSeries(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SeriesRequest
	if !bindJSON(c, &req) {
		return
	}

	base := models.Transaction{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
		Date:        req.Date,
		Category:    req.Category,
		AccountID:   req.AccountID,
	}
	series, err := h.transactionService.CreateSeries(c.Request.Context(), uid, base, req.InstallmentNumber, req.TotalInstallments)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transactions": series})
}

// GetUserTransactions lists the user's transactions, newest first.
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.List(c.Request.Context(), uid, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		if !isoDate(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use YYYY-MM-DD")
		}
		filter.FromDate = v
	}

	if v := c.Query("to_date"); v != "" {
		if !isoDate(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use YYYY-MM-DD")
		}
		filter.ToDate = v
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypeIncome, models.TransactionTypeExpense, models.TransactionTypeCreditCard:
			filter.Type = &txType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income, expense, or credit_card")
		}
	}

	filter.Category = c.Query("category")

	if v := c.Query("account_id"); v != "" {
		id, err := parseQueryID(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account_id")
		}
		filter.AccountID = id
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// UpdateTransaction replaces a transaction.
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	tx := req.model()
	tx.ID = id
	saved, err := h.transactionService.Save(c.Request.Context(), uid, tx)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": saved})
}

// DeleteTransaction handles deleting a transaction
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.Delete(c.Request.Context(), uid, id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
