package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auto-service/internal/model"
	"github.com/iliyamo/auto-service/internal/repository"
)

func newShiftHandler(t *testing.T) (*ShiftHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewShiftHandler(
		repository.NewShiftRepo(db),
		repository.NewUserRepo(db),
		repository.NewTransactionRepo(db),
	), mock
}

// newContext builds an Echo context for a handler invocation outside a
// running server.
func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func operatorRows(id uint64, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "phone", "full_name", "role", "created_at"}).
		AddRow(id, "+79001234567", name, model.RoleOperator, time.Now())
}

func shiftRows(id, operatorID uint64, closedAt interface{}, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "operator_id", "opened_at", "closed_at", "status", "created_at"}).
		AddRow(id, operatorID, now, closedAt, status, now)
}

func TestShiftOpenCreatesShiftAndLog(t *testing.T) {
	h, mock := newShiftHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ? AND role = ?`)).
		WithArgs(uint64(7), model.RoleOperator).
		WillReturnRows(operatorRows(7, "Olga Sidorova"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO shifts (operator_id, status) VALUES (?, ?)`)).
		WithArgs(uint64(7), model.ShiftOpen).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE id = ?`)).
		WithArgs(int64(42)).
		WillReturnRows(shiftRows(42, 7, nil, model.ShiftOpen))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO shift_logs (shift_id, operator_id, action, details) VALUES (?, ?, ?, ?)`)).
		WithArgs(uint64(42), uint64(7), model.LogOpened, "Shift opened by operator Olga Sidorova").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c, rec := newContext(t, http.MethodPost, "/api/shifts/open/7", "")
	c.SetPath("/api/shifts/open/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Open(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Shift opened successfully", body["message"])
	shift := body["shift"].(map[string]interface{})
	require.Equal(t, float64(42), shift["id"])
	require.Equal(t, model.ShiftOpen, shift["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftOpenSecondOpenShiftIsRejected(t *testing.T) {
	h, mock := newShiftHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ? AND role = ?`)).
		WithArgs(uint64(7), model.RoleOperator).
		WillReturnRows(operatorRows(7, "Olga Sidorova"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO shifts (operator_id, status) VALUES (?, ?)`)).
		WithArgs(uint64(7), model.ShiftOpen).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	c, rec := newContext(t, http.MethodPost, "/api/shifts/open/7", "")
	c.SetPath("/api/shifts/open/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Open(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Operator already has an open shift", decodeBody(t, rec)["error"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftOpenUnknownOperator(t *testing.T) {
	h, mock := newShiftHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ? AND role = ?`)).
		WithArgs(uint64(99), model.RoleOperator).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "full_name", "role", "created_at"}))

	c, rec := newContext(t, http.MethodPost, "/api/shifts/open/99", "")
	c.SetPath("/api/shifts/open/:id")
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.Open(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Operator not found", decodeBody(t, rec)["error"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftCloseAlreadyClosed(t *testing.T) {
	h, mock := newShiftHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE id = ?`)).
		WithArgs(uint64(42)).
		WillReturnRows(shiftRows(42, 7, time.Now(), model.ShiftClosed))

	c, rec := newContext(t, http.MethodPost, "/api/shifts/close/42", "")
	c.SetPath("/api/shifts/close/:id")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Close(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Shift is already closed", decodeBody(t, rec)["error"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftCloseHappyPath(t *testing.T) {
	h, mock := newShiftHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE id = ?`)).
		WithArgs(uint64(42)).
		WillReturnRows(shiftRows(42, 7, nil, model.ShiftOpen))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shifts SET status = ?, closed_at = CURRENT_TIMESTAMP, open_flag = NULL WHERE id = ? AND status = ?`)).
		WithArgs(model.ShiftClosed, uint64(42), model.ShiftOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE id = ?`)).
		WithArgs(uint64(42)).
		WillReturnRows(shiftRows(42, 7, time.Now(), model.ShiftClosed))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO shift_logs (shift_id, operator_id, action, details) VALUES (?, ?, ?, ?)`)).
		WithArgs(uint64(42), uint64(7), model.LogClosed, "Shift closed").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ? AND role = ?`)).
		WithArgs(uint64(7), model.RoleOperator).
		WillReturnRows(operatorRows(7, "Olga Sidorova"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE shift_id = ?`)).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"payments", "cancellations", "payment_count", "cancellation_count"}).
			AddRow("4500.00", "500.00", 3, 1))

	c, rec := newContext(t, http.MethodPost, "/api/shifts/close/42", "")
	c.SetPath("/api/shifts/close/:id")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Close(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Shift closed successfully", body["message"])
	shift := body["shift"].(map[string]interface{})
	require.Equal(t, model.ShiftClosed, shift["status"])
	require.NotNil(t, shift["closed_at"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftActiveNoneIsNull(t *testing.T) {
	h, mock := newShiftHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE operator_id = ? AND status = ? LIMIT 1`)).
		WithArgs(uint64(7), model.ShiftOpen).
		WillReturnRows(sqlmock.NewRows([]string{"id", "operator_id", "opened_at", "closed_at", "status", "created_at"}))

	c, rec := newContext(t, http.MethodGet, "/api/shifts/operator/7/active", "")
	c.SetPath("/api/shifts/operator/:id/active")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Active(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Nil(t, body["shift"])
	require.Equal(t, "No active shift", body["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}
