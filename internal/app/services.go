package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lexdesk/case-service/internal/config"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/notify"
	"github.com/lexdesk/case-service/internal/observability"
	"github.com/lexdesk/case-service/internal/persistence"
	"github.com/lexdesk/case-service/internal/service"
)

// Options carries what NewServices needs beyond configuration.
type Options struct {
	Storage   *Storage
	ScanState service.ScanState
	Mailer    notify.Mailer
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	// Clock overrides time.Now.
	Clock service.Clock
}

// Services is the wired service layer.
type Services struct {
	Dispatcher    events.Dispatcher
	Auth          *service.AuthService
	Staff         *service.StaffService
	Cases         *service.CaseService
	Engine        *service.ReassignmentService
	Scanner       *service.VacationScanner
	Notifications *service.NotificationService
}

// NewServices builds every service and subscribes the mail handlers.
func NewServices(cfg config.Config, opts Options) (*Services, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.VacationScan.Location()
	if err != nil {
		return nil, fmt.Errorf("scan timezone: %w", err)
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = NewMailer(cfg.Notification, logger)
	}
	store := opts.Storage
	state := opts.ScanState
	if state == nil {
		state = persistence.NewMemoryScanState()
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	engine := service.NewReassignmentService(service.ReassignmentDependencies{
		StaffRepo:     store.Staff,
		CaseRepo:      store.Cases,
		HistoryRepo:   store.History,
		Dispatcher:    dispatcher,
		Metrics:       opts.Metrics,
		Logger:        logger.Named("reassignment"),
		Clock:         opts.Clock,
		Transactional: cfg.Reassignment.Transactional,
	})
	scanner := service.NewVacationScanner(service.VacationScannerDependencies{
		StaffRepo:  store.Staff,
		Engine:     engine,
		State:      state,
		Dispatcher: dispatcher,
		Metrics:    opts.Metrics,
		Logger:     logger.Named("vacation-scan"),
		Clock:      opts.Clock,
		Location:   loc,
		LockTTL:    cfg.VacationScan.LockTTL(),
	})
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:  dispatcher,
		Mailer:      mailer,
		StaffRepo:   store.Staff,
		StudentRepo: store.Students,
	}, logger.Named("notify"), cfg.Notification)
	notifications.RegisterHandlers()

	return &Services{
		Dispatcher: dispatcher,
		Auth: service.NewAuthService(cfg, service.AuthDependencies{
			StudentRepo: store.Students,
			StaffRepo:   store.Staff,
		}),
		Staff: service.NewStaffService(cfg, service.StaffDependencies{
			StaffRepo: store.Staff,
			Engine:    engine,
			Clock:     opts.Clock,
			Location:  loc,
		}),
		Cases: service.NewCaseService(service.CaseDependencies{
			CaseRepo:    store.Cases,
			StaffRepo:   store.Staff,
			HistoryRepo: store.History,
			Dispatcher:  dispatcher,
			Logger:      logger.Named("cases"),
			Clock:       opts.Clock,
		}),
		Engine:        engine,
		Scanner:       scanner,
		Notifications: notifications,
	}, nil
}

// NewMailer returns the SendGrid mailer when an API key is configured and a
// logging mailer otherwise.
func NewMailer(cfg config.NotificationConfig, logger *zap.Logger) notify.Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not provided; mail is logged only")
		return notify.NewLogMailer(logger.Named("mail"))
	}
	return notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFrom)
}
