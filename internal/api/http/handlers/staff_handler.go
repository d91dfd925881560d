package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lexdesk/case-service/internal/api/dto"
	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/service"
)

// StaffHandler exposes the staff directory and leave management.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staffService}
}

// CreateStaffMember handles POST /staff/members.
func (h *StaffHandler) CreateStaffMember(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	staff, err := h.staff.CreateStaffMember(c.UserContext(), actor, service.StaffInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       domain.StaffRole(req.Role),
		LegalAreas: req.LegalAreas,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// ListStaffMembers handles GET /staff/members.
func (h *StaffHandler) ListStaffMembers(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filters := service.StaffListFilters{
		LegalArea: optionalQuery(c, "legal_area"),
		Active:    parseBoolQuery(c, "active"),
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
	}
	if role := c.Query("role"); role != "" {
		r := domain.StaffRole(role)
		filters.Role = &r
	}
	staff, err := h.staff.ListStaffMembers(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponses(staff)})
}

// GetStaffMember handles GET /staff/members/:id.
func (h *StaffHandler) GetStaffMember(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	staff, err := h.staff.GetStaffMemberByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// UpdateStaffMember handles PATCH /staff/members/:id.
func (h *StaffHandler) UpdateStaffMember(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	update := service.StaffUpdate{
		Name:       req.Name,
		Email:      req.Email,
		LegalAreas: req.LegalAreas,
		Active:     req.Active,
	}
	if req.Role != nil {
		role := domain.StaffRole(*req.Role)
		update.Role = &role
	}
	staff, err := h.staff.UpdateStaffMember(c.UserContext(), actor, c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// SetLeave handles PUT /staff/members/:id/leave.
func (h *StaffHandler) SetLeave(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.LeaveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	start, end, err := req.Dates()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid leave dates")
	}
	staff, report, err := h.staff.SetLeave(c.UserContext(), actor, c.Params("id"), &start, &end, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"staff":        dto.NewStaffResponse(staff),
		"reassignment": report,
	}})
}

// ClearLeave handles DELETE /staff/members/:id/leave.
func (h *StaffHandler) ClearLeave(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	staff, report, err := h.staff.ClearLeave(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"staff":        dto.NewStaffResponse(staff),
		"reassignment": report,
	}})
}
