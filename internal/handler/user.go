package handler

import (
    "database/sql" // for sql.ErrNoRows comparisons
    "errors"       // for errors.Is comparisons
    "net/http"     // HTTP status codes
    "strconv"      // parsing path parameters

    "github.com/iliyamo/auto-service/internal/model"      // domain models
    "github.com/iliyamo/auto-service/internal/repository" // repository layer
    "github.com/labstack/echo/v4"                         // Echo web framework
)

// UserHandler groups the repositories needed to manage users and the
// master/service assignments.  A user's profile is enriched according
// to their role: masters carry their assigned services, operators
// their currently open shift.
type UserHandler struct {
	UserRepo    *repository.UserRepo    // access to users and master_services
	ShiftRepo   *repository.ShiftRepo   // active-shift lookups for operators
	ServiceRepo *repository.ServiceRepo // service existence checks for assignments
}

// NewUserHandler constructs a UserHandler.  All dependencies must be
// non-nil.
func NewUserHandler(userRepo *repository.UserRepo, shiftRepo *repository.ShiftRepo, serviceRepo *repository.ServiceRepo) *UserHandler {
	if userRepo == nil || shiftRepo == nil || serviceRepo == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{UserRepo: userRepo, ShiftRepo: shiftRepo, ServiceRepo: serviceRepo}
}

// List handles GET /api/users.  The optional role query parameter
// narrows the result to one role.
func (h *UserHandler) List(c echo.Context) error {
	role := c.QueryParam("role")
	if role != "" && !model.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid role. Must be: operator, master, or client"})
	}
	users, err := h.UserRepo.List(c.Request().Context(), role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /api/users/:id.  Masters are returned with their
// assigned services; operators with their currently open shift, which
// is null when no shift is open.
func (h *UserHandler) Get(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	user, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	resp := echo.Map{
		"id":         user.ID,
		"phone":      user.Phone,
		"full_name":  user.FullName,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	}
	switch user.Role {
	case model.RoleMaster:
		services, err := h.UserRepo.ServicesOfMaster(ctx, userID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		resp["services"] = services
	case model.RoleOperator:
		shift, err := h.ShiftRepo.ActiveByOperator(ctx, userID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		resp["current_shift"] = shift
	}
	return c.JSON(http.StatusOK, resp)
}

// Register handles POST /api/users/register.  Self-registration always
// produces a client; privileged roles are assigned through the staff
// endpoint instead.
func (h *UserHandler) Register(c echo.Context) error {
	var body struct {
		Phone    string `json:"phone"`
		FullName string `json:"full_name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Phone == "" || body.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields: phone, full_name"})
	}
	user, err := h.UserRepo.Create(c.Request().Context(), body.Phone, body.FullName, model.RoleClient)
	if err != nil {
		if errors.Is(err, repository.ErrPhoneExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "User with this phone already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Create handles POST /api/users.  Unlike Register it accepts an
// explicit role, which must be one of the known roles.
func (h *UserHandler) Create(c echo.Context) error {
	var body struct {
		Phone    string `json:"phone"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Phone == "" || body.FullName == "" || body.Role == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields: phone, full_name, role"})
	}
	if !model.ValidRole(body.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid role. Must be: operator, master, or client"})
	}
	user, err := h.UserRepo.Create(c.Request().Context(), body.Phone, body.FullName, body.Role)
	if err != nil {
		if errors.Is(err, repository.ErrPhoneExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "User with this phone already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User created successfully",
		"user":    user,
	})
}

// Update handles PUT /api/users/:id.  Only full_name and role may be
// changed; the phone number is the user's stable identity.  Fields
// absent from the body are left untouched.
func (h *UserHandler) Update(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var body struct {
		FullName *string `json:"full_name"`
		Role     *string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Role != nil && !model.ValidRole(*body.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid role. Must be: operator, master, or client"})
	}
	ctx := c.Request().Context()
	if _, err := h.UserRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	user, err := h.UserRepo.Update(ctx, userID, repository.UserUpdate{FullName: body.FullName, Role: body.Role})
	if err != nil {
		if errors.Is(err, repository.ErrNoFields) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "No fields to update"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// Delete handles DELETE /api/users/:id.  Shifts, transactions and log
// entries owned by the user cascade away with the row.  The deleted
// user is echoed back so the caller can show what was removed.
func (h *UserHandler) Delete(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	user, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.UserRepo.Delete(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "User deleted successfully",
		"user":    user,
	})
}

// AssignService handles POST /api/users/:id/services/:serviceId.  It
// links a catalog service to a master.  The pair is unique, so a
// repeated assignment is rejected by the database rather than by a
// read-modify-write check.
func (h *UserHandler) AssignService(c echo.Context) error {
	masterID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || masterID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	serviceID, err := strconv.ParseUint(c.Param("serviceId"), 10, 64)
	if err != nil || serviceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	ctx := c.Request().Context()
	user, err := h.UserRepo.GetByID(ctx, masterID)
	if err != nil || user.Role != model.RoleMaster {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Master not found"})
	}
	if _, err := h.ServiceRepo.GetByID(ctx, serviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	assignment, err := h.UserRepo.AssignService(ctx, masterID, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "This service is already assigned to this master"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to assign service"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "Service assigned successfully",
		"assignment": assignment,
	})
}

// UnassignService handles DELETE /api/users/:id/services/:serviceId.
// It removes the link between a master and a service.
func (h *UserHandler) UnassignService(c echo.Context) error {
	masterID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || masterID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	serviceID, err := strconv.ParseUint(c.Param("serviceId"), 10, 64)
	if err != nil || serviceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	assignment, err := h.UserRepo.UnassignService(c.Request().Context(), masterID, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Service assignment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to unassign service"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Service unassigned successfully",
		"assignment": assignment,
	})
}
