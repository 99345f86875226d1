package services

import (
	"context"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateBookingRequest = validator.BookingCreateRequest
type RescheduleBookingRequest = validator.BookingRescheduleRequest
type UpdateBookingStatusRequest = validator.BookingStatusRequest
type BookingFeedbackRequest = validator.BookingFeedbackRequest

type BookingResponse struct {
	*models.Booking
	CanReschedule bool `json:"can_reschedule"`
	CanCancel     bool `json:"can_cancel"`
	CanFeedback   bool `json:"can_feedback"`
}

type BookingListResponse struct {
	Bookings   []*BookingResponse `json:"bookings"`
	Pagination models.Pagination  `json:"pagination"`
}

// AvailabilityResult is the outcome of a conflict check. ConflictingID is set
// only when Available is false.
type AvailabilityResult struct {
	Available     bool      `json:"available"`
	ConflictingID *uint     `json:"conflicting_booking_id,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

type AvailableSlotsResponse struct {
	ConsultantID uint     `json:"consultant_id"`
	ServiceID    uint     `json:"service_id"`
	Date         string   `json:"date"`
	Slots        []string `json:"slots"`
}

// Use business validator types
type UpdateProgressRequest = validator.EnrollmentProgressRequest
type UpdateEnrollmentStatusRequest = validator.EnrollmentStatusRequest
type EnrollmentReviewRequest = validator.EnrollmentReviewRequest

type EnrollmentResponse struct {
	*models.Enrollment
	CanReview bool `json:"can_review"`
}

type EnrollmentListResponse struct {
	Enrollments []*EnrollmentResponse `json:"enrollments"`
	Pagination  models.Pagination     `json:"pagination"`
}

// Use business validator types
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateServiceRequest = validator.ServiceCreateRequest
type UpdateServiceRequest = validator.ServiceUpdateRequest
type ConsultantApplyRequest = validator.ConsultantApplyRequest
type ConsultantApprovalRequest = validator.ConsultantApprovalRequest
type CreateCategoryRequest = validator.CategoryCreateRequest
type PartnerRequest = validator.PartnerRequest

type CourseResponse struct {
	*models.Course
	CanEdit    bool `json:"can_edit"`
	CanPublish bool `json:"can_publish"`
	CanEnroll  bool `json:"can_enroll"`
}

type CourseListResponse struct {
	Courses    []*CourseResponse `json:"courses"`
	Pagination models.Pagination `json:"pagination"`
}

type ServiceResponse struct {
	*models.Service
	CanEdit bool `json:"can_edit"`
	CanBook bool `json:"can_book"`
}

type ServiceListResponse struct {
	Services   []*ServiceResponse `json:"services"`
	Pagination models.Pagination  `json:"pagination"`
}

type ConsultantResponse struct {
	*models.Consultant
	CanEdit    bool `json:"can_edit"`
	CanApprove bool `json:"can_approve"`
}

type ConsultantListResponse struct {
	Consultants []*ConsultantResponse `json:"consultants"`
	Pagination  models.Pagination     `json:"pagination"`
}

// ===== DASHBOARD DTOs =====

type DashboardStats struct {
	TotalCourses     int64   `json:"total_courses"`
	TotalServices    int64   `json:"total_services"`
	TotalConsultants int64   `json:"total_consultants"`
	TotalBookings    int64   `json:"total_bookings"`
	TotalEnrollments int64   `json:"total_enrollments"`
	ActiveClients    int64   `json:"active_clients"`
	CompletionRate   float64 `json:"completion_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
	TotalRevenue     float64 `json:"total_revenue"`

	RevenueTrend   []repositories.RevenueTrendData   `json:"revenue_trend"`
	BookingTrend   []repositories.BookingTrendData   `json:"booking_trend"`
	RecentBookings []repositories.RecentBookingData  `json:"recent_bookings"`
	TopConsultants []repositories.ConsultantRankData `json:"top_consultants"`
	TopCourses     []repositories.CourseRankData     `json:"top_courses"`
}

// ===== NOTIFICATION DTOs =====

type NotificationRequest struct {
	Type     string `json:"type" validate:"required"`
	Title    string `json:"title" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=2000"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high"`
}

// ===== SERVICE INTERFACES =====

type BookingService interface {
	// Core operations
	Create(ctx context.Context, req *CreateBookingRequest, clientID string) (*BookingResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*BookingResponse, error)
	List(ctx context.Context, filters repositories.BookingFilters, userID string) (*BookingListResponse, error)
	GetByClient(ctx context.Context, clientID string, filters repositories.BookingFilters, userID string) (*BookingListResponse, error)
	GetByConsultant(ctx context.Context, consultantID uint, filters repositories.BookingFilters, userID string) (*BookingListResponse, error)

	// Scheduling
	CheckAvailability(ctx context.Context, consultantID uint, start time.Time, duration int, excludeID *uint) (*AvailabilityResult, error)
	GetAvailableSlots(ctx context.Context, consultantID, serviceID uint, date time.Time) (*AvailableSlotsResponse, error)
	Reschedule(ctx context.Context, id uint, req *RescheduleBookingRequest, actorID string) (*BookingResponse, error)

	// Lifecycle
	UpdateStatus(ctx context.Context, id uint, req *UpdateBookingStatusRequest, actorID string) (*BookingResponse, error)
	SubmitFeedback(ctx context.Context, id uint, req *BookingFeedbackRequest, actorID string) error

	// Statistics
	GetConsultantStats(ctx context.Context, consultantID uint, userID string) (*repositories.ConsultantStats, error)
}

type EnrollmentService interface {
	// Core operations
	Enroll(ctx context.Context, courseID uint, studentID string) (*EnrollmentResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*EnrollmentResponse, error)
	List(ctx context.Context, filters repositories.EnrollmentFilters, userID string) (*EnrollmentListResponse, error)
	GetByStudent(ctx context.Context, studentID string, filters repositories.EnrollmentFilters, userID string) (*EnrollmentListResponse, error)

	// Progress and lifecycle
	UpdateProgress(ctx context.Context, id uint, req *UpdateProgressRequest, studentID string) (*EnrollmentResponse, error)
	UpdateStatus(ctx context.Context, id uint, req *UpdateEnrollmentStatusRequest, actorID string) (*EnrollmentResponse, error)
	SubmitReview(ctx context.Context, id uint, req *EnrollmentReviewRequest, studentID string) error
}

type RatingService interface {
	RecomputeConsultant(ctx context.Context, consultantID uint) error
	RecomputeService(ctx context.Context, serviceID uint) error
	RecomputeCourse(ctx context.Context, courseID uint) error
}

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateCourseRequest, instructorID string) (*CourseResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*CourseResponse, error)
	GetByIDWithDetails(ctx context.Context, id uint, userID string) (*CourseResponse, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*CourseResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List and search operations
	List(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error)
	GetByInstructor(ctx context.Context, instructorID string, filters repositories.CourseFilters) (*CourseListResponse, error)
	Search(ctx context.Context, query string, filters repositories.CourseFilters) (*CourseListResponse, error)

	// Status management
	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error

	// Statistics
	GetStats(ctx context.Context, id uint, userID string) (*repositories.CourseStats, error)
}

type ServiceCatalogService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateServiceRequest, userID string) (*ServiceResponse, error)
	GetByID(ctx context.Context, id uint) (*ServiceResponse, error)
	Update(ctx context.Context, id uint, req *UpdateServiceRequest, userID string) (*ServiceResponse, error)
	Deactivate(ctx context.Context, id uint, userID string) error

	// List and search operations
	List(ctx context.Context, filters repositories.ServiceFilters) (*ServiceListResponse, error)
	GetByConsultant(ctx context.Context, consultantID uint, filters repositories.ServiceFilters) (*ServiceListResponse, error)
	Search(ctx context.Context, query string, filters repositories.ServiceFilters) (*ServiceListResponse, error)
}

type ConsultantService interface {
	// Profile operations
	Apply(ctx context.Context, req *ConsultantApplyRequest, userID string) (*ConsultantResponse, error)
	GetByID(ctx context.Context, id uint) (*ConsultantResponse, error)
	GetByUserID(ctx context.Context, userID string) (*ConsultantResponse, error)
	UpdateProfile(ctx context.Context, id uint, req *ConsultantApplyRequest, userID string) (*ConsultantResponse, error)

	// List and search operations
	List(ctx context.Context, filters repositories.ConsultantFilters) (*ConsultantListResponse, error)
	GetPendingApproval(ctx context.Context, filters repositories.ConsultantFilters, userID string) (*ConsultantListResponse, error)

	// Approval (admin)
	UpdateApproval(ctx context.Context, id uint, req *ConsultantApprovalRequest, adminID string) (*ConsultantResponse, error)
}

type CategoryService interface {
	Create(ctx context.Context, req *CreateCategoryRequest, adminID string) (*models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Update(ctx context.Context, id uint, req *CreateCategoryRequest, adminID string) (*models.Category, error)
	Delete(ctx context.Context, id uint, adminID string) error
	List(ctx context.Context, filters repositories.CategoryFilters) ([]*models.Category, int64, error)
}

type PartnerService interface {
	Create(ctx context.Context, req *PartnerRequest, adminID string) (*models.Partner, error)
	GetByID(ctx context.Context, id uint) (*models.Partner, error)
	Update(ctx context.Context, id uint, req *PartnerRequest, adminID string) (*models.Partner, error)
	Delete(ctx context.Context, id uint, adminID string) error
	List(ctx context.Context, filters repositories.PartnerFilters) ([]*models.Partner, int64, error)
}

type DashboardService interface {
	GetPlatformStats(ctx context.Context, userID string) (*DashboardStats, error)
}

type ReportService interface {
	// ExportRevenueReport renders the revenue report for [from, to] as an xlsx
	// workbook and returns the serialized bytes.
	ExportRevenueReport(ctx context.Context, from, to time.Time) ([]byte, error)
}

type NotificationEventService interface {
	NotifyBookingCreated(ctx context.Context, booking *models.Booking) error
	NotifyBookingStatusChanged(ctx context.Context, booking *models.Booking, prevStatus models.BookingStatus, actorID string) error
	NotifyBookingRescheduled(ctx context.Context, booking *models.Booking, actorID, reason string) error
	NotifyEnrollmentCreated(ctx context.Context, enrollment *models.Enrollment) error
	NotifyEnrollmentCompleted(ctx context.Context, enrollment *models.Enrollment) error
	NotifyCoursePublished(ctx context.Context, course *models.Course) error
	NotifyConsultantApproved(ctx context.Context, consultant *models.Consultant) error
	SendBulkNotification(ctx context.Context, userIDs []string, notification *NotificationRequest) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Booking() BookingService
	Enrollment() EnrollmentService
	Rating() RatingService
	Course() CourseService
	ServiceCatalog() ServiceCatalogService
	Consultant() ConsultantService
	Category() CategoryService
	Partner() PartnerService
	Dashboard() DashboardService
	Report() ReportService
	NotificationEvent() NotificationEventService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
