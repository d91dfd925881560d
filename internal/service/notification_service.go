package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/lexdesk/case-service/internal/config"
	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/notify"
	"github.com/lexdesk/case-service/internal/repository"
)

// NotificationService turns domain events into email.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	staff      repository.StaffRepository
	students   repository.StudentRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	Mailer      notify.Mailer
	StaffRepo   repository.StaffRepository
	StudentRepo repository.StudentRepository
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		mailer:     deps.Mailer,
		staff:      deps.StaffRepo,
		students:   deps.StudentRepo,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCasesReassigned, n.handleCasesReassigned)
	n.dispatcher.Subscribe(events.EventCaseStatusChanged, n.handleCaseStatusChanged)
	n.dispatcher.Subscribe(events.EventVacationScanCompleted, n.handleScanCompleted)
}

func (n *NotificationService) handleCasesReassigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CasesReassignedPayload)
	if !ok || len(payload.Transfers) == 0 {
		return nil
	}
	recipient, err := n.staff.GetByID(ctx, payload.RecipientStaffID)
	if err != nil {
		return dispatchError(fmt.Errorf("load recipient %s: %w", payload.RecipientStaffID, err))
	}
	if !recipient.NotificationsEnabled {
		n.logger.Debug("recipient has notifications disabled", zap.String("staff_id", recipient.ID))
		return nil
	}

	subject := fmt.Sprintf("%d case(s) assigned to you", len(payload.Transfers))
	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", recipient.Name)
	switch payload.Reason {
	case domain.ReasonLeaveEnd:
		body.WriteString("Welcome back. The following cases have been returned to you:\n\n")
	case domain.ReasonLeaveStart:
		body.WriteString("A colleague is on leave. You now hold the following cases:\n\n")
	default:
		body.WriteString("The following cases have been transferred to you:\n\n")
	}
	for _, t := range payload.Transfers {
		fmt.Fprintf(&body, "- %s [%s] %s\n", t.CaseID, t.LegalArea, t.Status)
	}

	return n.send(ctx, notify.Message{
		To:      mail.Address{Name: recipient.Name, Address: recipient.Email},
		Subject: subject,
		Body:    body.String(),
	})
}

func (n *NotificationService) handleCaseStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CaseStatusChangedPayload)
	if !ok || !payload.NewStatus.IsTerminal() {
		return nil
	}
	student, err := n.students.GetByID(ctx, payload.StudentID)
	if err != nil {
		return dispatchError(fmt.Errorf("load student %s: %w", payload.StudentID, err))
	}
	var body string
	if payload.NewStatus == domain.CaseStatusVideoUploaded {
		body = fmt.Sprintf("Hello %s,\n\nthe video correction for %q is available.\n", student.Name, payload.Title)
	} else {
		body = fmt.Sprintf("Hello %s,\n\nyour case study %q has been corrected.\n", student.Name, payload.Title)
	}
	return n.send(ctx, notify.Message{
		To:      mail.Address{Name: student.Name, Address: student.Email},
		Subject: "Your case study was corrected",
		Body:    body,
	})
}

func (n *NotificationService) handleScanCompleted(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.AdminEmail) == "" {
		return nil
	}
	payload, ok := event.Payload.(events.VacationScanCompletedPayload)
	if !ok || payload.Summary == nil || len(payload.Summary.Outcomes) == 0 {
		return nil
	}
	summary := payload.Summary

	var body strings.Builder
	fmt.Fprintf(&body, "Vacation scan for %s\n\n", summary.Today.Format("2006-01-02"))
	for _, o := range summary.Outcomes {
		if o.Error != "" {
			fmt.Fprintf(&body, "%s %s: FAILED %s\n", o.Action, o.StaffID, o.Error)
			continue
		}
		transferred, failed := 0, 0
		if o.Report != nil {
			transferred, failed = len(o.Report.Transfers), len(o.Report.Errors)
		}
		fmt.Fprintf(&body, "%s %s: %d transferred, %d errors\n", o.Action, o.StaffID, transferred, failed)
		if o.Report != nil {
			for _, e := range o.Report.Errors {
				fmt.Fprintf(&body, "    %s\n", e.Error())
			}
		}
	}

	return n.send(ctx, notify.Message{
		To:      mail.Address{Address: n.cfg.AdminEmail},
		Subject: fmt.Sprintf("Vacation scan: %d transferred, %d failed", summary.Transferred(), summary.Failed()),
		Body:    body.String(),
	})
}

func (n *NotificationService) send(ctx context.Context, msg notify.Message) error {
	if n.mailer == nil {
		return nil
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return dispatchError(err)
	}
	return nil
}

func dispatchError(err error) error {
	return fmt.Errorf("%s: %w", domain.ErrKindDispatch, err)
}
