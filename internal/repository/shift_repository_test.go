package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auto-service/internal/model"
)

func newShiftRepo(t *testing.T) (*ShiftRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewShiftRepo(db), mock
}

func shiftRows(id, operatorID uint64, closedAt interface{}, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "operator_id", "opened_at", "closed_at", "status", "created_at"}).
		AddRow(id, operatorID, now, closedAt, status, now)
}

func TestOpenTxInsertsAndReturnsShift(t *testing.T) {
	repo, mock := newShiftRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO shifts (operator_id, status) VALUES (?, ?)`)).
		WithArgs(uint64(7), model.ShiftOpen).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE id = ?`)).
		WithArgs(int64(42)).
		WillReturnRows(shiftRows(42, 7, nil, model.ShiftOpen))

	tx, err := repo.DB().Begin()
	require.NoError(t, err)
	shift, err := repo.OpenTx(context.Background(), tx, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(42), shift.ID)
	require.Equal(t, uint64(7), shift.OperatorID)
	require.Equal(t, model.ShiftOpen, shift.Status)
	require.Nil(t, shift.ClosedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenTxSecondOpenShiftRejected(t *testing.T) {
	repo, mock := newShiftRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO shifts (operator_id, status) VALUES (?, ?)`)).
		WithArgs(uint64(7), model.ShiftOpen).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-1' for key 'uq_operator_open'"})

	tx, err := repo.DB().Begin()
	require.NoError(t, err)
	_, err = repo.OpenTx(context.Background(), tx, 7)
	require.ErrorIs(t, err, ErrOpenShiftExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseTxClosesOpenShift(t *testing.T) {
	repo, mock := newShiftRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shifts SET status = ?, closed_at = CURRENT_TIMESTAMP, open_flag = NULL WHERE id = ? AND status = ?`)).
		WithArgs(model.ShiftClosed, uint64(42), model.ShiftOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE id = ?`)).
		WithArgs(uint64(42)).
		WillReturnRows(shiftRows(42, 7, time.Now(), model.ShiftClosed))

	tx, err := repo.DB().Begin()
	require.NoError(t, err)
	shift, err := repo.CloseTx(context.Background(), tx, 42)
	require.NoError(t, err)
	require.Equal(t, model.ShiftClosed, shift.Status)
	require.NotNil(t, shift.ClosedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseTxAlreadyClosed(t *testing.T) {
	repo, mock := newShiftRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shifts SET status = ?, closed_at = CURRENT_TIMESTAMP, open_flag = NULL WHERE id = ? AND status = ?`)).
		WithArgs(model.ShiftClosed, uint64(42), model.ShiftOpen).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := repo.DB().Begin()
	require.NoError(t, err)
	_, err = repo.CloseTx(context.Background(), tx, 42)
	require.ErrorIs(t, err, ErrShiftClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveByOperatorNoneIsNotAnError(t *testing.T) {
	repo, mock := newShiftRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE operator_id = ? AND status = ? LIMIT 1`)).
		WithArgs(uint64(7), model.ShiftOpen).
		WillReturnRows(sqlmock.NewRows([]string{"id", "operator_id", "opened_at", "closed_at", "status", "created_at"}))

	shift, err := repo.ActiveByOperator(context.Background(), 7)
	require.NoError(t, err)
	require.Nil(t, shift)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLifecycleMissingShift(t *testing.T) {
	repo, mock := newShiftRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shifts WHERE id = ?`)).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "operator_id", "opened_at", "closed_at", "status", "created_at"}))

	_, err := repo.GetLifecycle(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersByOperatorAndStatus(t *testing.T) {
	repo, mock := newShiftRepo(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "operator_id", "full_name", "phone", "opened_at", "closed_at", "status", "created_at"}).
		AddRow(1, 7, "Olga Sidorova", "+79001234567", now, nil, model.ShiftOpen, now)
	mock.ExpectQuery(`WHERE s\.operator_id = \? AND s\.status = \? ORDER BY s\.opened_at DESC`).
		WithArgs(uint64(7), model.ShiftOpen).
		WillReturnRows(rows)

	shifts, err := repo.List(context.Background(), 7, model.ShiftOpen)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	require.Equal(t, "Olga Sidorova", shifts[0].FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}
