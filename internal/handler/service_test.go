package handler

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auto-service/internal/repository"
)

func newServiceHandler(t *testing.T) (*ServiceHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewServiceHandler(repository.NewServiceRepo(db)), mock
}

func TestServiceCreateMissingFields(t *testing.T) {
	h, _ := newServiceHandler(t)
	c, rec := newContext(t, http.MethodPost, "/api/services", `{"name":"Oil change"}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Missing required fields: name, price", decodeBody(t, rec)["error"])
}

func TestServiceCreateDuplicateName(t *testing.T) {
	h, mock := newServiceHandler(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO services (name, price, description) VALUES (?, ?, ?)`)).
		WithArgs("Oil change", sqlmock.AnyArg(), nil).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	c, rec := newContext(t, http.MethodPost, "/api/services", `{"name":"Oil change","price":3500}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Service with this name already exists", decodeBody(t, rec)["error"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceGetIncludesMasters(t *testing.T) {
	h, mock := newServiceHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM services WHERE id = ?`)).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "description", "created_at"}).
			AddRow(2, "Oil change", "3500.00", nil, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE ms.service_id = ?`)).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "phone"}).
			AddRow(4, "Sergei Ivanov", "+79007654321"))

	c, rec := newContext(t, http.MethodGet, "/api/services/2", "")
	c.SetPath("/api/services/:id")
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Oil change", body["name"])
	masters := body["masters"].([]interface{})
	require.Len(t, masters, 1)
	require.Equal(t, "Sergei Ivanov", masters[0].(map[string]interface{})["full_name"])
	require.NoError(t, mock.ExpectationsWereMet())
}
