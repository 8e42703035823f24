package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/finacore/bank-account-service/internal/apperrors"
	portssvc "github.com/finacore/bank-account-service/internal/core/ports/services"
	"github.com/finacore/bank-account-service/internal/dto"
	"github.com/finacore/bank-account-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	queryService   portssvc.AccountQuerySvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade, qs portssvc.AccountQuerySvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
		queryService:   qs,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, as portssvc.AccountSvcFacade, qs portssvc.AccountQuerySvcFacade) {
	h := newAccountHandler(as, qs)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountNumber", h.getAccount)
		accounts.PUT("/:accountNumber", h.updateAccount)
		accounts.POST("/:accountNumber/balance", h.applyBalanceChange)
		accounts.POST("/:accountNumber/status", h.changeStatus)
	}
	rg.GET("/iban/:iban", h.getAccountByIBAN)
}

// respondServiceError maps the core error taxonomy onto HTTP statuses. Degraded
// consistency never reaches here; it rides along on success responses.
func respondServiceError(c *gin.Context, err error) {
	var insufficient *apperrors.InsufficientBalanceError
	var nonZero *apperrors.NonZeroBalanceError

	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":           "insufficient balance",
			"accountNumber":   insufficient.AccountNumber,
			"currentBalance":  insufficient.CurrentBalance,
			"requestedAmount": insufficient.RequestedAmount,
			"shortfall":       insufficient.Shortfall,
		})
	case errors.As(err, &nonZero):
		c.JSON(http.StatusConflict, gin.H{
			"error":          "account balance must be zero before closing",
			"accountNumber":  nonZero.AccountNumber,
			"currentBalance": nonZero.CurrentBalance,
		})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
	case errors.Is(err, apperrors.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		logger.Warn("Failed to create account", slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMutationResponse(result))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountNumber := c.Param("accountNumber")

	account, err := h.queryService.GetByAccountNumber(c.Request.Context(), accountNumber)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to get account", slog.String("account_number", accountNumber), slog.String("error", err.Error()))
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccountByIBAN(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	iban := c.Param("iban")

	account, err := h.queryService.GetByIBAN(c.Request.Context(), iban)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to get account by IBAN", slog.String("iban", iban), slog.String("error", err.Error()))
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	accounts, err := h.queryService.ListAccounts(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		logger.Error("Failed to list accounts", slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListAccountsResponse(accounts))
}

func (h *accountHandler) updateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountNumber := c.Param("accountNumber")

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.accountService.UpdateAccount(c.Request.Context(), accountNumber, req)
	if err != nil {
		logger.Warn("Failed to update account", slog.String("account_number", accountNumber), slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMutationResponse(result))
}

func (h *accountHandler) applyBalanceChange(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountNumber := c.Param("accountNumber")

	var req dto.BalanceChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BalanceChange", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.accountService.ApplyBalanceChange(c.Request.Context(), accountNumber, req)
	if err != nil {
		logger.Warn("Failed to apply balance change", slog.String("account_number", accountNumber), slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMutationResponse(result))
}

func (h *accountHandler) changeStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountNumber := c.Param("accountNumber")

	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for StatusChange", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.accountService.ChangeStatus(c.Request.Context(), accountNumber, req)
	if err != nil {
		logger.Warn("Failed to change account status", slog.String("account_number", accountNumber), slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMutationResponse(result))
}
