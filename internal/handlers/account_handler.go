package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// AccountHandler handles bank-account-related requests
type AccountHandler struct {
	accountService services.AccountServicer
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService services.AccountServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// AccountRequest represents the payload for creating or replacing an account
type AccountRequest struct {
	Name      string             `json:"name" binding:"required,max=100"`
	Type      models.AccountType `json:"type" binding:"required,account_type"`
	BankName  string             `json:"bank_name" binding:"max=100"`
	IsDefault bool               `json:"is_default"`
}

func (r AccountRequest) model() *models.BankAccount {
	return &models.BankAccount{Name: r.Name, Type: r.Type, BankName: r.BankName, IsDefault: r.IsDefault}
}

// CreateAccount handles the creation of a new account
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.Save(c.Request.Context(), uid, req.model())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// GetUserAccounts lists the accounts visible to the user
func (h *AccountHandler) GetUserAccounts(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.accountService.ListForUser(c.Request.Context(), uid)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccountByID handles the retrieval of a specific account
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
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

	account, err := h.accountService.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount replaces an account. A missing id creates it.
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
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

	var req AccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account := req.model()
	account.ID = id
	saved, err := h.accountService.Save(c.Request.Context(), uid, account)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": saved})
}

// DeleteAccount deletes an account. Transactions that reference it are kept.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
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

	if err := h.accountService.Delete(c.Request.Context(), uid, id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
