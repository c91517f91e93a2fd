package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/liveflow/donor-service/internal/api/dto"
	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/service"
)

// UsersHandler exposes user registration, profile and administration endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Upsert handles POST /user.
func (h *UsersHandler) Upsert(c *fiber.Ctx) error {
	var req dto.UserProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.users.RegisterOrTouch(c.UserContext(), service.ProfileInput{
		Email:      req.Email,
		Name:       req.Name,
		Image:      req.Image,
		BloodGroup: req.BloodGroup,
		District:   req.District,
		Upazila:    req.Upazila,
	})
	if err != nil {
		return err
	}
	if res.Created {
		return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.Inserted(res.InsertedID)})
	}
	return data(c, dto.Updated(res.Update))
}

// Profile handles GET /profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), principal.Email)
	if err != nil {
		return err
	}
	return data(c, user)
}

// Role handles GET /user/role.
func (h *UsersHandler) Role(c *fiber.Ctx) error {
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	var resp dto.RoleResponse
	if user != nil {
		role := string(user.Role)
		resp.Role = &role
	}
	return data(c, resp)
}

// Status handles GET /user/status.
func (h *UsersHandler) Status(c *fiber.Ctx) error {
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	var resp dto.StatusResponse
	if user != nil {
		status := string(user.Status)
		resp.Status = &status
	}
	return data(c, resp)
}

// List handles GET /all-users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), principal, c.Query("status"))
	if err != nil {
		return err
	}
	return data(c, users)
}

// Search handles GET /searchdata.
func (h *UsersHandler) Search(c *fiber.Ctx) error {
	users, err := h.users.Search(c.UserContext(), service.SearchFilter{
		BloodGroup: c.Query("bloodGroup"),
		District:   c.Query("district"),
		Upazila:    c.Query("upazila"),
	})
	if err != nil {
		return err
	}
	return data(c, users)
}

// UpdateRole handles PATCH /update-role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.users.UpdateRole(c.UserContext(), principal, req.Email, domain.UserRole(req.Role))
	if err != nil {
		return err
	}
	return data(c, dto.Updated(res))
}

// UpdateStatus handles PATCH /update-status.
func (h *UsersHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.users.ToggleStatus(c.UserContext(), principal, req.Email)
	if err != nil {
		return err
	}
	return data(c, dto.Updated(res))
}

// UpdateProfile handles PATCH /profile-update.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.users.UpdateProfile(c.UserContext(), principal, req.Email, req.UpdatedProfile)
	if err != nil {
		return err
	}
	return data(c, dto.Updated(res))
}

func (h *UsersHandler) caller(c *fiber.Ctx) (*domain.User, error) {
	principal, err := requirePrincipal(c)
	if err != nil {
		return nil, err
	}
	return h.users.Get(c.UserContext(), principal.Email)
}
