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

// StaffHandler exposes the staff directory. Admin only; enforced by the
// route-level role guard.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staffService}
}

// CreateStaff POST /staff.
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	profile, err := h.staff.Create(c.UserContext(), service.StaffCreateInput{
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Region:     req.Region,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(profile)})
}

// GetStaff GET /staff/:id.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	profile, err := h.staff.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(profile)})
}

// ListStaff GET /staff.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	filter := service.StaffListFilter{}
	if department := c.Query("department"); department != "" {
		filter.Department = &department
	}
	if region := c.Query("region"); region != "" {
		filter.Region = &region
	}
	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return apperrors.NewInvalidArgument("invalid active filter", nil)
		}
		filter.Active = &active
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	profiles, err := h.staff.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.StaffResponse, 0, len(profiles))
	for i := range profiles {
		items = append(items, staffResponse(&profiles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStaff PATCH /staff/:id.
func (h *StaffHandler) UpdateStaff(c *fiber.Ctx) error {
	var req dto.UpdateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	profile, err := h.staff.Update(c.UserContext(), c.Params("id"), service.StaffUpdateInput{
		Name:       req.Name,
		Department: req.Department,
		Region:     req.Region,
		Active:     req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(profile)})
}

// DeleteStaff DELETE /staff/:id.
func (h *StaffHandler) DeleteStaff(c *fiber.Ctx) error {
	if err := h.staff.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func staffResponse(profile *domain.StaffProfile) dto.StaffResponse {
	return dto.StaffResponse{
		ID:         profile.ID,
		Name:       profile.Name,
		Email:      profile.Email,
		Department: profile.Department,
		Region:     profile.Region,
		Active:     profile.Active,
		CreatedAt:  profile.CreatedAt,
		UpdatedAt:  profile.UpdatedAt,
	}
}
