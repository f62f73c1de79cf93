package handler

import (
    "database/sql" // for sql.ErrNoRows comparisons
    "errors"       // for errors.Is comparisons
    "net/http"     // HTTP status codes
    "strconv"      // parsing path parameters

    "github.com/iliyamo/auto-service/internal/repository" // repository layer
    "github.com/labstack/echo/v4"                         // Echo web framework
    "github.com/shopspring/decimal"                       // exact monetary prices
)

// ServiceHandler manages the service catalog.  Listings and single
// lookups include the masters assigned to each service.
type ServiceHandler struct {
	ServiceRepo *repository.ServiceRepo // access to services and their masters
}

// NewServiceHandler constructs a ServiceHandler.
func NewServiceHandler(serviceRepo *repository.ServiceRepo) *ServiceHandler {
	if serviceRepo == nil {
		panic("nil repository passed to NewServiceHandler")
	}
	return &ServiceHandler{ServiceRepo: serviceRepo}
}

// List handles GET /api/services.
func (h *ServiceHandler) List(c echo.Context) error {
	services, err := h.ServiceRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, services)
}

// Get handles GET /api/services/:id.
func (h *ServiceHandler) Get(c echo.Context) error {
	serviceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || serviceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	detail, err := h.ServiceRepo.GetByID(c.Request().Context(), serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Create handles POST /api/services.  Service names are unique across
// the catalog.
func (h *ServiceHandler) Create(c echo.Context) error {
	var body struct {
		Name        string           `json:"name"`
		Price       *decimal.Decimal `json:"price"`
		Description *string          `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" || body.Price == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields: name, price"})
	}
	service, err := h.ServiceRepo.Create(c.Request().Context(), body.Name, *body.Price, body.Description)
	if err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Service with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create service"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Service created successfully",
		"service": service,
	})
}

// Update handles PUT /api/services/:id.  Fields absent from the body
// are left untouched.
func (h *ServiceHandler) Update(c echo.Context) error {
	serviceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || serviceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	var body struct {
		Name        *string          `json:"name"`
		Price       *decimal.Decimal `json:"price"`
		Description *string          `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	if _, err := h.ServiceRepo.GetByID(ctx, serviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	service, err := h.ServiceRepo.Update(ctx, serviceID, repository.ServiceUpdate{
		Name:        body.Name,
		Price:       body.Price,
		Description: body.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoFields):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "No fields to update"})
		case errors.Is(err, repository.ErrNameExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Service with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update service"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Service updated successfully",
		"service": service,
	})
}

// Delete handles DELETE /api/services/:id.  Master assignments cascade
// away with the service.
func (h *ServiceHandler) Delete(c echo.Context) error {
	serviceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || serviceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	ctx := c.Request().Context()
	detail, err := h.ServiceRepo.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.ServiceRepo.Delete(ctx, serviceID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete service"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Service deleted successfully",
		"service": detail.Service,
	})
}
