package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// UsersHandler exposes registration, login and account management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Register POST /users. Idempotent: a repeat registration returns the
// existing record with 200 instead of 201.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	user, created, err := h.users.Register(c.UserContext(), req.Email, req.Name)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"data":           userResponse(user),
		"already_exists": !created,
	})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if req.Email == "" || req.Secret == "" {
		return apperrors.NewInvalidArgument("email and secret required", nil)
	}

	token, exp, err := h.users.Login(c.UserContext(), req.Email, req.Secret)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: token, ExpiresAt: exp}})
}

// GetUser GET /users/:email.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.users.GetByEmail(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// GetRole GET /users/:email/role.
func (h *UsersHandler) GetRole(c *fiber.Ctx) error {
	role, err := h.users.GetRole(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"role": role}})
}

// UpdateUser PATCH /users/:email.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	user, err := h.users.UpdateProfile(c.UserContext(), c.Params("email"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	filter := service.UserListFilter{}
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.UserRole(roleStr)
		if !domain.ValidUserRole(role) {
			return apperrors.NewInvalidArgument("unknown role", map[string]any{"role": roleStr})
		}
		filter.Role = &role
	}
	if blockedStr := c.Query("blocked"); blockedStr != "" {
		blocked, err := strconv.ParseBool(blockedStr)
		if err != nil {
			return apperrors.NewInvalidArgument("invalid blocked filter", nil)
		}
		filter.Blocked = &blocked
	}
	if premiumStr := c.Query("premium"); premiumStr != "" {
		premium, err := strconv.ParseBool(premiumStr)
		if err != nil {
			return apperrors.NewInvalidArgument("invalid premium filter", nil)
		}
		filter.Premium = &premium
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	users, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ChangeRole PATCH /users/:email/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := h.users.ChangeRole(c.UserContext(), c.Params("email"), req.Role); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ToggleBlock PATCH /users/:email/block.
func (h *UsersHandler) ToggleBlock(c *fiber.Ctx) error {
	var req dto.ToggleBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := h.users.SetBlocked(c.UserContext(), c.Params("email"), req.Blocked); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RegisterStaff POST /users/staff. Admin-only privileged creation path.
func (h *UsersHandler) RegisterStaff(c *fiber.Ctx) error {
	var req dto.RegisterStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	user, err := h.users.RegisterStaff(c.UserContext(), service.StaffRegistrationInput{
		Name:        req.Name,
		Email:       req.Email,
		Secret:      req.Secret,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Role:             user.Role,
		IssuesReported:   user.IssuesReported,
		IsPremium:        user.IsPremium,
		IsBlocked:        user.IsBlocked,
		SubscriptionDate: user.SubscriptionDate,
		CreatedAt:        user.CreatedAt,
	}
}
