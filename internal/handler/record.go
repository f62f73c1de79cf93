package handler

import (
    "database/sql" // for sql.ErrNoRows comparisons
    "errors"       // for errors.Is comparisons
    "net/http"     // HTTP status codes
    "strconv"      // parsing path parameters

    "github.com/iliyamo/auto-service/internal/repository" // repository layer
    "github.com/labstack/echo/v4"                         // Echo web framework
)

// RecordHandler manages the standalone work records kept for walk-in
// jobs that are not tied to shifts or the transaction ledger.
type RecordHandler struct {
	RecordRepo *repository.RecordRepo // access to records
}

// NewRecordHandler constructs a RecordHandler.
func NewRecordHandler(recordRepo *repository.RecordRepo) *RecordHandler {
	if recordRepo == nil {
		panic("nil repository passed to NewRecordHandler")
	}
	return &RecordHandler{RecordRepo: recordRepo}
}

// List handles GET /api/records, newest first.
func (h *RecordHandler) List(c echo.Context) error {
	records, err := h.RecordRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, records)
}

// Get handles GET /api/records/:id.
func (h *RecordHandler) Get(c echo.Context) error {
	recordID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || recordID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}
	record, err := h.RecordRepo.GetByID(c.Request().Context(), recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, record)
}

// Create handles POST /api/records.  Status defaults to "pending" and
// comments to an empty string when omitted.
func (h *RecordHandler) Create(c echo.Context) error {
	var body struct {
		Client             string  `json:"client"`
		Car                string  `json:"car"`
		Service            string  `json:"service"`
		Price              *int    `json:"price"`
		Date               string  `json:"date"`
		Status             string  `json:"status"`
		PaymentAmount      *int    `json:"payment_amount"`
		Comments           string  `json:"comments"`
		CancellationReason *string `json:"cancellation_reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Client == "" || body.Car == "" || body.Service == "" || body.Price == nil || body.Date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields: client, car, service, price, date"})
	}
	status := body.Status
	if status == "" {
		status = "pending"
	}
	record, err := h.RecordRepo.Create(c.Request().Context(), repository.RecordCreate{
		Client:             body.Client,
		Car:                body.Car,
		Service:            body.Service,
		Price:              *body.Price,
		Date:               body.Date,
		Status:             status,
		PaymentAmount:      body.PaymentAmount,
		Comments:           body.Comments,
		CancellationReason: body.CancellationReason,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create record"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Record created successfully",
		"record":  record,
	})
}

// Update handles PUT /api/records/:id.  Fields absent from the body
// are left untouched.
func (h *RecordHandler) Update(c echo.Context) error {
	recordID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || recordID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}
	var body struct {
		Client             *string `json:"client"`
		Car                *string `json:"car"`
		Service            *string `json:"service"`
		Price              *int    `json:"price"`
		Date               *string `json:"date"`
		Status             *string `json:"status"`
		PaymentAmount      *int    `json:"payment_amount"`
		Comments           *string `json:"comments"`
		CancellationReason *string `json:"cancellation_reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	if _, err := h.RecordRepo.GetByID(ctx, recordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	record, err := h.RecordRepo.Update(ctx, recordID, repository.RecordUpdate{
		Client:             body.Client,
		Car:                body.Car,
		Service:            body.Service,
		Price:              body.Price,
		Date:               body.Date,
		Status:             body.Status,
		PaymentAmount:      body.PaymentAmount,
		Comments:           body.Comments,
		CancellationReason: body.CancellationReason,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoFields) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "No fields to update"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update record"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Record updated successfully",
		"record":  record,
	})
}

// Delete handles DELETE /api/records/:id.  The deleted record is
// echoed back.
func (h *RecordHandler) Delete(c echo.Context) error {
	recordID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || recordID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}
	ctx := c.Request().Context()
	record, err := h.RecordRepo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.RecordRepo.Delete(ctx, recordID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete record"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Record deleted successfully",
		"record":  record,
	})
}
