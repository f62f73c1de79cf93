package handler

import (
    "context"       // background context for fire-and-forget event publishing
    "database/sql"  // for sql.ErrNoRows comparisons
    "errors"        // for errors.Is comparisons
    "fmt"           // building shift log details
    "net/http"      // HTTP status codes
    "strconv"       // parsing path parameters
    "time"          // formatting event timestamps

    "github.com/iliyamo/auto-service/internal/model"                    // domain models
    "github.com/iliyamo/auto-service/internal/queue"                    // shift event payloads
    "github.com/iliyamo/auto-service/internal/repository"               // repository layer
    queue_publisher "github.com/iliyamo/auto-service/internal/service"  // RabbitMQ publisher
    "github.com/labstack/echo/v4"                                       // Echo web framework
)

// ShiftHandler groups the repositories needed to manage operator work
// shifts: opening, closing, listing and the shift audit log.  Every
// state change runs inside a transaction so that the shift row and its
// log entry are written atomically.
type ShiftHandler struct {
	ShiftRepo       *repository.ShiftRepo       // access to shifts and shift_logs
	UserRepo        *repository.UserRepo        // operator lookups
	TransactionRepo *repository.TransactionRepo // per-shift transactions and totals
}

// NewShiftHandler constructs a ShiftHandler.  All dependencies must be
// non-nil.
func NewShiftHandler(shiftRepo *repository.ShiftRepo, userRepo *repository.UserRepo, txnRepo *repository.TransactionRepo) *ShiftHandler {
	if shiftRepo == nil || userRepo == nil || txnRepo == nil {
		panic("nil repository passed to NewShiftHandler")
	}
	return &ShiftHandler{ShiftRepo: shiftRepo, UserRepo: userRepo, TransactionRepo: txnRepo}
}

// Open handles POST /api/shifts/open/:id.  It opens a new shift for the
// operator identified by the path parameter.  The one-open-shift-per-
// operator rule is enforced by a unique index on the shifts table, so a
// concurrent second open fails inside the insert rather than in a
// check-then-act race.  Returns 201 with the created shift.
func (h *ShiftHandler) Open(c echo.Context) error {
	operatorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || operatorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid operator id"})
	}
	ctx := c.Request().Context()
	operator, err := h.UserRepo.GetOperator(ctx, operatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Operator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	tx, err := h.ShiftRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	shift, err := h.ShiftRepo.OpenTx(ctx, tx, operatorID)
	if err != nil {
		if errors.Is(err, repository.ErrOpenShiftExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Operator already has an open shift"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open shift"})
	}
	details := fmt.Sprintf("Shift opened by operator %s", operator.FullName)
	if err := h.ShiftRepo.InsertLogTx(ctx, tx, shift.ID, operatorID, model.LogOpened, details); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to write shift log"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	// notify downstream consumers outside the request lifecycle; a
	// broker outage must not fail the shift open
	ev := queue.ShiftEvent{
		ShiftID:      shift.ID,
		OperatorID:   operatorID,
		OperatorName: operator.FullName,
		Action:       "opened",
		OpenedAt:     shift.OpenedAt.UTC().Format(time.RFC3339),
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishShiftEvent(context.Background(), ev) }()
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Shift opened successfully",
		"shift":   shift,
	})
}

// Close handles POST /api/shifts/close/:id.  It closes the shift
// identified by the path parameter.  The UPDATE is conditional on the
// shift still being open, so two concurrent closes cannot both
// succeed; the loser observes zero affected rows and gets a 400.
func (h *ShiftHandler) Close(c echo.Context) error {
	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || shiftID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
	}
	ctx := c.Request().Context()
	current, err := h.ShiftRepo.GetLifecycle(ctx, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Shift not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if current.Status == model.ShiftClosed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Shift is already closed"})
	}
	tx, err := h.ShiftRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	shift, err := h.ShiftRepo.CloseTx(ctx, tx, shiftID)
	if err != nil {
		if errors.Is(err, repository.ErrShiftClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Shift is already closed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to close shift"})
	}
	if err := h.ShiftRepo.InsertLogTx(ctx, tx, shiftID, shift.OperatorID, model.LogClosed, "Shift closed"); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to write shift log"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	ev := queue.ShiftEvent{
		ShiftID:    shift.ID,
		OperatorID: shift.OperatorID,
		Action:     "closed",
		OpenedAt:   shift.OpenedAt.UTC().Format(time.RFC3339),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if shift.ClosedAt != nil {
		ev.ClosedAt = shift.ClosedAt.UTC().Format(time.RFC3339)
	}
	// enrich the event with the operator's name and financial totals
	// when they can be read; the close itself is already committed
	if op, errOp := h.UserRepo.GetOperator(ctx, shift.OperatorID); errOp == nil {
		ev.OperatorName = op.FullName
	}
	if totals, errTot := h.TransactionRepo.Totals(ctx, shiftID); errTot == nil {
		ev.TotalPayments = totals.TotalPayments.String()
		ev.TotalCancellations = totals.TotalCancellations.String()
		ev.NetAmount = totals.NetAmount.String()
	}
	go func() { _ = queue_publisher.PublishShiftEvent(context.Background(), ev) }()
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Shift closed successfully",
		"shift":   shift,
	})
}

// Get handles GET /api/shifts/:id.  It returns the shift together with
// the operator's name and phone and the full list of transactions
// recorded during the shift.
func (h *ShiftHandler) Get(c echo.Context) error {
	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || shiftID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
	}
	ctx := c.Request().Context()
	detail, err := h.ShiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Shift not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	txns, err := h.TransactionRepo.ListByShift(ctx, shiftID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	detail.Transactions = txns
	return c.JSON(http.StatusOK, detail)
}

// List handles GET /api/shifts.  Optional query parameters operator_id
// and status narrow the result; both are combined when present.
func (h *ShiftHandler) List(c echo.Context) error {
	var operatorID uint64
	if raw := c.QueryParam("operator_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid operator_id"})
		}
		operatorID = id
	}
	status := c.QueryParam("status")
	if status != "" && status != model.ShiftOpen && status != model.ShiftClosed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status. Must be: open or closed"})
	}
	shifts, err := h.ShiftRepo.List(c.Request().Context(), operatorID, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, shifts)
}

// Active handles GET /api/shifts/operator/:id/active.  It reports the
// operator's currently open shift, or a null shift with an explanatory
// message when no shift is open.  Having no open shift is a normal
// state, not an error, so the response is always 200.
func (h *ShiftHandler) Active(c echo.Context) error {
	operatorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || operatorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid operator id"})
	}
	shift, err := h.ShiftRepo.ActiveByOperator(c.Request().Context(), operatorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if shift == nil {
		return c.JSON(http.StatusOK, echo.Map{"shift": nil, "message": "No active shift"})
	}
	return c.JSON(http.StatusOK, echo.Map{"shift": shift})
}

// Logs handles GET /api/shifts/:id/logs.  It returns the audit log of
// the given shift, newest first.
func (h *ShiftHandler) Logs(c echo.Context) error {
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
	logs, err := h.ShiftRepo.Logs(ctx, shiftID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, logs)
}

// OperatorLogs handles GET /api/shifts/logs/operator/:id.  It returns
// all shift log entries produced by one operator across all of their
// shifts, enriched with each shift's open and close timestamps.
func (h *ShiftHandler) OperatorLogs(c echo.Context) error {
	operatorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || operatorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid operator id"})
	}
	logs, err := h.ShiftRepo.LogsByOperator(c.Request().Context(), operatorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, logs)
}
