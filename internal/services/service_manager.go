package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skillbridge/marketplace-service/internal/events"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
	"gorm.io/gorm"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Logging configuration
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Service-specific configurations
	Booking    ServiceConfig
	Enrollment ServiceConfig
	Course     ServiceConfig
	Catalog    ServiceConfig

	// Global settings
	DefaultTimeout    time.Duration
	MaxRetries        int
	RateLimitingRules map[string]RateLimit
}

type ServiceConfig struct {
	Enabled         bool
	CacheEnabled    bool
	CacheTTL        time.Duration
	ValidationLevel ValidationLevel
}

type ValidationLevel int

const (
	ValidationBasic ValidationLevel = iota
	ValidationStrict
	ValidationFull
)

type RateLimit struct {
	RequestsPerMinute int
	BurstSize         int
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db             *gorm.DB
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	config         ServiceManagerConfig

	// Service instances
	bookingService           BookingService
	enrollmentService        EnrollmentService
	ratingService            RatingService
	courseService            CourseService
	serviceCatalogService    ServiceCatalogService
	consultantService        ConsultantService
	categoryService          CategoryService
	partnerService           PartnerService
	dashboardService         DashboardService
	reportService            ReportService
	notificationEventService NotificationEventService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:             db,
		repo:           repo,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		config:         config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,

		Booking: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false, // real-time calendar data
			ValidationLevel: ValidationStrict,
		},
		Enrollment: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			ValidationLevel: ValidationStrict,
		},
		Course: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        10 * time.Minute,
			ValidationLevel: ValidationFull,
		},
		Catalog: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        10 * time.Minute,
			ValidationLevel: ValidationFull,
		},

		DefaultTimeout:    30 * time.Second,
		MaxRetries:        3,
		RateLimitingRules: make(map[string]RateLimit),
	}

	return NewServiceManager(db, repo, logger, validator, eventPublisher, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.initializeServices()

	if err := sm.validateServicesHealth(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() {
	// Event publishing and rating aggregation are shared by the domain
	// services, build them first.
	sm.notificationEventService = NewNotificationEventService(sm.repo, sm.eventPublisher, sm.logger, sm.validator)
	sm.logger.Info("Notification event service initialized")

	sm.ratingService = NewRatingService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Rating service initialized")

	if sm.config.Booking.Enabled {
		sm.bookingService = NewBookingService(sm.repo, sm.db, sm.logger, sm.validator, sm.notificationEventService, sm.ratingService)
		sm.logger.Info("Booking service initialized")
	}

	if sm.config.Enrollment.Enabled {
		sm.enrollmentService = NewEnrollmentService(sm.repo, sm.db, sm.logger, sm.validator, sm.notificationEventService, sm.ratingService)
		sm.logger.Info("Enrollment service initialized")
	}

	if sm.config.Course.Enabled {
		sm.courseService = NewCourseService(sm.repo, sm.db, sm.logger, sm.validator, sm.notificationEventService)
		sm.logger.Info("Course service initialized")
	}

	if sm.config.Catalog.Enabled {
		sm.serviceCatalogService = NewServiceCatalogService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.consultantService = NewConsultantService(sm.repo, sm.db, sm.logger, sm.validator, sm.notificationEventService)
		sm.categoryService = NewCategoryService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.partnerService = NewPartnerService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Catalog services initialized")
	}

	sm.dashboardService = NewDashboardService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Dashboard service initialized")

	sm.reportService = NewReportService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Report service initialized")
}

func (sm *serviceManager) validateServicesHealth(ctx context.Context) error {
	return sm.repo.Ping(ctx)
}

// ===== SERVICE GETTERS =====

func (sm *serviceManager) Booking() BookingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.config.Booking.Enabled && sm.bookingService != nil {
		return sm.bookingService
	}
	panic("booking service not enabled or not initialized")
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.config.Enrollment.Enabled && sm.enrollmentService != nil {
		return sm.enrollmentService
	}
	panic("enrollment service not enabled or not initialized")
}

func (sm *serviceManager) Rating() RatingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.ratingService
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.config.Course.Enabled && sm.courseService != nil {
		return sm.courseService
	}
	panic("course service not enabled or not initialized")
}

func (sm *serviceManager) ServiceCatalog() ServiceCatalogService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.config.Catalog.Enabled && sm.serviceCatalogService != nil {
		return sm.serviceCatalogService
	}
	panic("service catalog service not enabled or not initialized")
}

func (sm *serviceManager) Consultant() ConsultantService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.config.Catalog.Enabled && sm.consultantService != nil {
		return sm.consultantService
	}
	panic("consultant service not enabled or not initialized")
}

func (sm *serviceManager) Category() CategoryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.categoryService
}

func (sm *serviceManager) Partner() PartnerService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.partnerService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.dashboardService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.reportService
}

func (sm *serviceManager) NotificationEvent() NotificationEventService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.notificationEventService
}

// ===== HEALTH AND LIFECYCLE =====

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.eventPublisher != nil {
		if err := sm.eventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}
