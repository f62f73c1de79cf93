package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auto-service/internal/model"
)

func newTransactionRepo(t *testing.T) (*TransactionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTransactionRepo(db), mock
}

func txnRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "shift_id", "operator_id", "amount", "transaction_type", "description", "related_transaction_id", "created_at"})
}

func TestCreatePaymentReturnsRow(t *testing.T) {
	repo, mock := newTransactionRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions (shift_id, operator_id, amount, transaction_type, description) VALUES (?, ?, ?, ?, ?)`)).
		WithArgs(uint64(3), uint64(7), sqlmock.AnyArg(), model.TxnPayment, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = ?`)).
		WithArgs(int64(11)).
		WillReturnRows(txnRows().AddRow(11, 3, 7, "1500.00", model.TxnPayment, nil, nil, time.Now()))

	txn, err := repo.CreatePayment(context.Background(), 3, 7, decimal.RequireFromString("1500.00"), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(11), txn.ID)
	require.Equal(t, model.TxnPayment, txn.Type)
	require.True(t, txn.Amount.Equal(decimal.RequireFromString("1500.00")))
	require.Nil(t, txn.RelatedTransactionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCancellationTxCopiesOriginal(t *testing.T) {
	repo, mock := newTransactionRepo(t)
	original := model.Transaction{
		ID:         9,
		ShiftID:    3,
		OperatorID: 7,
		Amount:     decimal.RequireFromString("500.00"),
		Type:       model.TxnPayment,
	}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions (shift_id, operator_id, amount, transaction_type, description, related_transaction_id) VALUES (?, ?, ?, ?, ?, ?)`)).
		WithArgs(uint64(3), uint64(7), sqlmock.AnyArg(), model.TxnCancellation, "Customer changed mind", uint64(9)).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = ?`)).
		WithArgs(int64(12)).
		WillReturnRows(txnRows().AddRow(12, 3, 7, "500.00", model.TxnCancellation, "Customer changed mind", 9, time.Now()))

	tx, err := repo.DB().Begin()
	require.NoError(t, err)
	cancellation, err := repo.CreateCancellationTx(context.Background(), tx, original, "Customer changed mind")
	require.NoError(t, err)
	require.Equal(t, model.TxnCancellation, cancellation.Type)
	require.Equal(t, original.ShiftID, cancellation.ShiftID)
	require.Equal(t, original.OperatorID, cancellation.OperatorID)
	require.True(t, cancellation.Amount.Equal(original.Amount))
	require.NotNil(t, cancellation.RelatedTransactionID)
	require.Equal(t, original.ID, *cancellation.RelatedTransactionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentRejectsCancellations(t *testing.T) {
	repo, mock := newTransactionRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = ? AND transaction_type = ?`)).
		WithArgs(uint64(12), model.TxnPayment).
		WillReturnRows(txnRows())

	_, err := repo.GetPayment(context.Background(), 12)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTotalsAggregatesLedger(t *testing.T) {
	repo, mock := newTransactionRepo(t)
	rows := sqlmock.NewRows([]string{"payments", "cancellations", "payment_count", "cancellation_count"}).
		AddRow("4500.00", "500.00", 3, 1)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE shift_id = ?`)).
		WithArgs(uint64(3)).
		WillReturnRows(rows)

	totals, err := repo.Totals(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, totals.TotalPayments.Equal(decimal.RequireFromString("4500.00")))
	require.True(t, totals.TotalCancellations.Equal(decimal.RequireFromString("500.00")))
	require.True(t, totals.NetAmount.Equal(decimal.RequireFromString("4000.00")))
	require.Equal(t, int64(3), totals.PaymentCount)
	require.Equal(t, int64(1), totals.CancellationCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTotalsEmptyShiftIsZero(t *testing.T) {
	repo, mock := newTransactionRepo(t)
	rows := sqlmock.NewRows([]string{"payments", "cancellations", "payment_count", "cancellation_count"}).
		AddRow("0", "0", 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE shift_id = ?`)).
		WithArgs(uint64(3)).
		WillReturnRows(rows)

	totals, err := repo.Totals(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, totals.TotalPayments.IsZero())
	require.True(t, totals.TotalCancellations.IsZero())
	require.True(t, totals.NetAmount.IsZero())
	require.Zero(t, totals.PaymentCount)
	require.Zero(t, totals.CancellationCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRowsAppliesDateBounds(t *testing.T) {
	repo, mock := newTransactionRepo(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "shift_id", "opened_at", "closed_at", "amount", "transaction_type", "description", "created_at"}).
		AddRow(9, 3, now, nil, "500.00", model.TxnPayment, nil, now)
	mock.ExpectQuery(`WHERE t\.operator_id = \? AND t\.created_at >= \? AND t\.created_at <= \?`).
		WithArgs(uint64(7), "2026-08-01", "2026-08-31").
		WillReturnRows(rows)

	report, err := repo.ReportRows(context.Background(), 7, "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, report, 1)
	require.Equal(t, model.TxnPayment, report[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}
