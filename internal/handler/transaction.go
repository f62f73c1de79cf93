package handler

import (
    "database/sql" // for sql.ErrNoRows comparisons
    "errors"       // for errors.Is comparisons
    "net/http"     // HTTP status codes
    "strconv"      // parsing path parameters

    "github.com/iliyamo/auto-service/internal/model"      // domain models
    "github.com/iliyamo/auto-service/internal/repository" // repository layer
    "github.com/labstack/echo/v4"                         // Echo web framework
    "github.com/shopspring/decimal"                       // exact monetary arithmetic
)

// TransactionHandler groups the repositories needed to record payments,
// cancel them and aggregate per-shift and per-operator financials.
// Cancellations never mutate or delete the original payment: they are
// recorded as compensating rows linked back to the original, so the
// transaction history stays append-only.
type TransactionHandler struct {
	TransactionRepo *repository.TransactionRepo // access to transactions
	ShiftRepo       *repository.ShiftRepo       // shift status checks
}

// NewTransactionHandler constructs a TransactionHandler.  All
// dependencies must be non-nil.
func NewTransactionHandler(txnRepo *repository.TransactionRepo, shiftRepo *repository.ShiftRepo) *TransactionHandler {
	if txnRepo == nil || shiftRepo == nil {
		panic("nil repository passed to NewTransactionHandler")
	}
	return &TransactionHandler{TransactionRepo: txnRepo, ShiftRepo: shiftRepo}
}

// List handles GET /api/transactions.  Optional query parameters
// shift_id and operator_id narrow the result.
func (h *TransactionHandler) List(c echo.Context) error {
	var shiftID, operatorID uint64
	if raw := c.QueryParam("shift_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift_id"})
		}
		shiftID = id
	}
	if raw := c.QueryParam("operator_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid operator_id"})
		}
		operatorID = id
	}
	txns, err := h.TransactionRepo.List(c.Request().Context(), shiftID, operatorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, txns)
}

// Get handles GET /api/transactions/:id.  It returns one transaction
// together with the operator's name.
func (h *TransactionHandler) Get(c echo.Context) error {
	txnID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || txnID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	txn, err := h.TransactionRepo.GetByID(c.Request().Context(), txnID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, txn)
}

// Payment handles POST /api/transactions/payment.  A payment can only
// be recorded against an open shift, and the operator named in the
// body must be the operator who owns that shift.
func (h *TransactionHandler) Payment(c echo.Context) error {
	var body struct {
		ShiftID     *uint64          `json:"shift_id"`
		OperatorID  *uint64          `json:"operator_id"`
		Amount      *decimal.Decimal `json:"amount"`
		Description *string          `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShiftID == nil || body.OperatorID == nil || body.Amount == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields: shift_id, operator_id, amount"})
	}
	ctx := c.Request().Context()
	shift, err := h.ShiftRepo.GetLifecycle(ctx, *body.ShiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Shift not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if shift.Status != model.ShiftOpen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Shift is not open"})
	}
	if shift.OperatorID != *body.OperatorID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Operator does not match the shift"})
	}
	txn, err := h.TransactionRepo.CreatePayment(ctx, *body.ShiftID, *body.OperatorID, *body.Amount, body.Description)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create transaction"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Payment transaction created successfully",
		"transaction": txn,
	})
}

// Cancel handles POST /api/transactions/cancellation.  It records a
// compensating cancellation for an existing payment.  Only payment
// transactions can be cancelled, and only while the shift they belong
// to is still open.  Cancelling the same payment twice produces two
// cancellation rows; the aggregates simply reflect both.
func (h *TransactionHandler) Cancel(c echo.Context) error {
	var body struct {
		TransactionID *uint64 `json:"transaction_id"`
		Reason        *string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TransactionID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: transaction_id"})
	}
	ctx := c.Request().Context()
	original, err := h.TransactionRepo.GetPayment(ctx, *body.TransactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Payment transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	shift, err := h.ShiftRepo.GetLifecycle(ctx, original.ShiftID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if shift.Status != model.ShiftOpen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Shift is not open. Cannot cancel payment"})
	}
	reason := "Payment cancellation"
	if body.Reason != nil && *body.Reason != "" {
		reason = *body.Reason
	}
	tx, err := h.TransactionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	cancellation, err := h.TransactionRepo.CreateCancellationTx(ctx, tx, original, reason)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create cancellation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"message":                  "Payment cancelled successfully",
		"cancellation_transaction": cancellation,
		"original_transaction":     original,
	})
}

// ShiftTotals handles GET /api/transactions/shift/:id/total.  It
// returns the payment and cancellation sums for one shift along with
// the net amount.  A shift with no transactions reports zeroes rather
// than an error; an unknown shift is a 404.
func (h *TransactionHandler) ShiftTotals(c echo.Context) error {
	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || shiftID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
	}
	ctx := c.Request().Context()
	if _, err := h.ShiftRepo.GetLifecycle(ctx, shiftID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Shift not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	totals, err := h.TransactionRepo.Totals(ctx, shiftID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, struct {
		ShiftID uint64 `json:"shift_id"`
		repository.ShiftTotals
	}{ShiftID: shiftID, ShiftTotals: totals})
}

// OperatorReport handles GET /api/transactions/operator/:id/report.
// Optional start_date and end_date query parameters (YYYY-MM-DD,
// inclusive) bound the report period.  Statistics are computed over
// the matched rows with exact decimal arithmetic.
func (h *TransactionHandler) OperatorReport(c echo.Context) error {
	operatorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || operatorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid operator id"})
	}
	startDate := c.QueryParam("start_date")
	endDate := c.QueryParam("end_date")
	rows, err := h.TransactionRepo.ReportRows(c.Request().Context(), operatorID, startDate, endDate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var stats repository.ShiftTotals
	for _, row := range rows {
		switch row.Type {
		case model.TxnPayment:
			stats.TotalPayments = stats.TotalPayments.Add(row.Amount)
			stats.PaymentCount++
		case model.TxnCancellation:
			stats.TotalCancellations = stats.TotalCancellations.Add(row.Amount)
			stats.CancellationCount++
		}
	}
	stats.NetAmount = stats.TotalPayments.Sub(stats.TotalCancellations)
	return c.JSON(http.StatusOK, echo.Map{
		"operator_id":  operatorID,
		"statistics":   stats,
		"transactions": rows,
	})
}
