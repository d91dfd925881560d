package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lexdesk/case-service/internal/api/dto"
	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/service"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

// StaffCasesHandler serves the staff side of the case desk.
type StaffCasesHandler struct {
	cases *service.CaseService
}

// NewStaffCasesHandler constructs handler.
func NewStaffCasesHandler(caseService *service.CaseService) *StaffCasesHandler {
	return &StaffCasesHandler{cases: caseService}
}

// ListStaffCases handles GET /staff/cases.
func (h *StaffCasesHandler) ListStaffCases(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filter, err := parseStaffCaseFilter(c)
	if err != nil {
		return err
	}
	cases, err := h.cases.ListStaffCases(c.UserContext(), staff, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCaseResponses(cases)})
}

// AdvanceStatus handles PATCH /staff/cases/:id/status.
func (h *StaffCasesHandler) AdvanceStatus(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CaseStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cs, err := h.cases.AdvanceStatus(c.UserContext(), staff, c.Params("id"), domain.CaseStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCaseResponse(cs)})
}

// History handles GET /staff/cases/:id/history.
func (h *StaffCasesHandler) History(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	entries, err := h.cases.History(c.UserContext(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCaseHistoryResponses(entries)})
}

func parseStaffCaseFilter(c *fiber.Ctx) (service.CaseStaffFilter, error) {
	filter := service.CaseStaffFilter{
		LegalArea: optionalQuery(c, "legal_area"),
		OwnerID:   optionalQuery(c, "owner_staff_id"),
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
	}
	switch statuses := c.Query("status"); statuses {
	case "":
	case "open":
		filter.Statuses = domain.OpenCaseStatuses()
	default:
		for _, part := range strings.Split(statuses, ",") {
			status, err := domain.ParseCaseStatus(strings.TrimSpace(part))
			if err != nil {
				return filter, apperrors.NewInvalidRequest(err.Error(), nil)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	return filter, nil
}
