package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/shopledger/backend/internal/application/finance"
	reportapp "github.com/shopledger/backend/internal/application/report"
)

// SpendingHandler serves the spending summary and the expense rows behind it
type SpendingHandler struct {
	BaseHandler
	summary  *reportapp.SpendingService
	expenses *financeapp.ExpenseService
}

// NewSpendingHandler creates a new SpendingHandler
func NewSpendingHandler(summary *reportapp.SpendingService, expenses *financeapp.ExpenseService) *SpendingHandler {
	return &SpendingHandler{summary: summary, expenses: expenses}
}

// Summary godoc
//
//	@Summary		Spending, P&L and inventory summary
//	@Description	The window defaults to the last 30 days. A date-only "to" covers the whole day.
//	@Tags			spending
//	@Produce		json
//	@Param			from		query		string	false	"RFC 3339 or YYYY-MM-DD"
//	@Param			to			query		string	false	"RFC 3339 or YYYY-MM-DD"
//	@Param			cat			query		string	false	"Expense category"
//	@Param			onlyPaid	query		bool	false	"Only count paid expenses"
//	@Success		200			{object}	dto.Response
//	@Failure		400			{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/spending/summary [get]
func (h *SpendingHandler) Summary(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req reportapp.SpendingSummaryRequest
	if !h.bindQuery(c, &req) {
		return
	}
	summary, err := h.summary.Summary(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ListExpenses returns a page of expenses, most recent spend first
func (h *SpendingHandler) ListExpenses(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter financeapp.ExpenseListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.expenses.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

func (h *SpendingHandler) CreateExpense(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req financeapp.CreateExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, expense)
}

func (h *SpendingHandler) DeleteExpense(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.expenses.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
