package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lexdesk/case-service/internal/api/dto"
	"github.com/lexdesk/case-service/internal/service"
)

// CasesHandler serves student case endpoints.
type CasesHandler struct {
	cases *service.CaseService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService) *CasesHandler {
	return &CasesHandler{cases: caseService}
}

// CreateCase handles POST /cases.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CaseCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cs, err := h.cases.RequestCase(c.UserContext(), student.ID, service.CaseRequestInput{
		LegalArea: req.LegalArea,
		Title:     req.Title,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCaseResponse(cs)})
}

// ListCases handles GET /cases.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	cases, err := h.cases.ListStudentCases(c.UserContext(), student.ID, parseIntQuery(c, "limit", 50), parseIntQuery(c, "offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCaseResponses(cases)})
}

// GetCase handles GET /cases/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	cs, err := h.cases.GetStudentCase(c.UserContext(), student.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCaseResponse(cs)})
}
