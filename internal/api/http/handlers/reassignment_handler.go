package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lexdesk/case-service/internal/api/dto"
	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/service"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

// ReassignmentHandler exposes the reassignment engine and the vacation scan.
type ReassignmentHandler struct {
	engine  service.Reassigner
	staff   *service.StaffService
	scanner *service.VacationScanner
}

// NewReassignmentHandler constructs handler.
func NewReassignmentHandler(engine service.Reassigner, staffService *service.StaffService, scanner *service.VacationScanner) *ReassignmentHandler {
	return &ReassignmentHandler{engine: engine, staff: staffService, scanner: scanner}
}

// Reassign handles POST /staff/reassignments. Staff may hand over their own
// cases manually; leave transitions and transfers on behalf of others need
// an admin.
func (h *ReassignmentHandler) Reassign(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReassignmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reason := domain.ReassignmentReason(req.Reason)
	var report *domain.ReassignmentReport
	if reason == domain.ReasonManual {
		report, err = h.staff.TransferCases(c.UserContext(), actor, req.StaffID, *req.TargetStaffID)
	} else {
		if actor.Role != domain.StaffRoleAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		id := actor.ID
		report, err = h.engine.Reassign(c.UserContext(), service.ReassignmentRequest{
			StaffID: req.StaffID,
			Reason:  reason,
			Actor:   events.Actor{Type: domain.SubjectTypeStaff, StaffID: &id},
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// RunScan handles POST /staff/vacation-scan.
func (h *ReassignmentHandler) RunScan(c *fiber.Ctx) error {
	summary, err := h.scanner.Run(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// LastScan handles GET /staff/vacation-scan/last.
func (h *ReassignmentHandler) LastScan(c *fiber.Ctx) error {
	summary, err := h.scanner.LastSummary(c.UserContext())
	if err != nil {
		return err
	}
	if summary == nil {
		return apperrors.NewNotFound("vacation scan summary", nil)
	}
	return c.JSON(fiber.Map{"data": summary})
}
