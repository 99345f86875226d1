package services

import (
	"context"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

// MockRepository backs service tests with in-memory sub-repositories. Only
// the methods the booking and enrollment flows reach are implemented; a call
// to anything else panics through the embedded nil interface.
type MockRepository struct {
	booking    *MockBookingRepo
	course     *MockCourseRepo
	enrollment *MockEnrollmentRepo
	service    *MockServiceRepo
	consultant *MockConsultantRepo
	user       *MockUserRepo
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		booking: &MockBookingRepo{bookings: map[uint]*models.Booking{}},
		course: &MockCourseRepo{
			courses:          map[uint]*models.Course{},
			lessonCounts:     map[uint]int64{},
			enrollmentDeltas: map[uint]int{},
		},
		enrollment: &MockEnrollmentRepo{enrollments: map[uint]*models.Enrollment{}},
		service: &MockServiceRepo{
			services:      map[uint]*models.Service{},
			bookingDeltas: map[uint]int{},
		},
		consultant: &MockConsultantRepo{
			consultants:   map[uint]*models.Consultant{},
			bookingDeltas: map[uint]int{},
		},
		user: &MockUserRepo{roles: map[string][]models.UserRole{}},
	}
}

func (m *MockRepository) Booking() repositories.BookingRepository       { return m.booking }
func (m *MockRepository) Course() repositories.CourseRepository         { return m.course }
func (m *MockRepository) Enrollment() repositories.EnrollmentRepository { return m.enrollment }
func (m *MockRepository) Service() repositories.ServiceRepository       { return m.service }
func (m *MockRepository) Category() repositories.CategoryRepository     { return nil }
func (m *MockRepository) Consultant() repositories.ConsultantRepository { return m.consultant }
func (m *MockRepository) Partner() repositories.PartnerRepository       { return nil }
func (m *MockRepository) User() repositories.UserRepository             { return m.user }
func (m *MockRepository) Dashboard() repositories.DashboardRepository   { return nil }

// WithTransaction mirrors the real implementation's rebinding: the callback
// works against the same sub-repositories.
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// ===== BOOKING =====

type MockBookingRepo struct {
	repositories.BookingRepository

	bookings  map[uint]*models.Booking
	nextID    uint
	conflicts []*models.Booking
	createErr error
	updates   int
}

func (m *MockBookingRepo) add(b *models.Booking) *models.Booking {
	m.nextID++
	b.ID = m.nextID
	m.bookings[b.ID] = b
	return b
}

func (m *MockBookingRepo) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.add(booking)
	return nil
}

func (m *MockBookingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (m *MockBookingRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	return m.GetByID(ctx, tx, id)
}

func (m *MockBookingRepo) Update(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if _, ok := m.bookings[booking.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.bookings[booking.ID] = booking
	m.updates++
	return nil
}

func (m *MockBookingRepo) FindConflicts(ctx context.Context, tx *gorm.DB, consultantID uint, start, end time.Time, excludeID *uint) ([]*models.Booking, error) {
	return m.conflicts, nil
}

func (m *MockBookingRepo) GetByClient(ctx context.Context, tx *gorm.DB, clientID string, filters repositories.BookingFilters) ([]*models.Booking, int64, error) {
	var out []*models.Booking
	for _, b := range m.bookings {
		if b.ClientID == clientID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

// ===== COURSE =====

type MockCourseRepo struct {
	repositories.CourseRepository

	courses          map[uint]*models.Course
	lessonCounts     map[uint]int64
	enrollmentDeltas map[uint]int
}

func (m *MockCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *MockCourseRepo) CountLessons(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	return m.lessonCounts[courseID], nil
}

func (m *MockCourseRepo) IncrementEnrollmentCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error {
	m.enrollmentDeltas[id] += delta
	return nil
}

// ===== ENROLLMENT =====

type MockEnrollmentRepo struct {
	repositories.EnrollmentRepository

	enrollments map[uint]*models.Enrollment
	nextID      uint
	createErr   error
	updates     int
}

func (m *MockEnrollmentRepo) add(e *models.Enrollment) *models.Enrollment {
	m.nextID++
	e.ID = m.nextID
	m.enrollments[e.ID] = e
	return e
}

func (m *MockEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.add(enrollment)
	return nil
}

func (m *MockEnrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (m *MockEnrollmentRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	return m.GetByID(ctx, tx, id)
}

func (m *MockEnrollmentRepo) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if _, ok := m.enrollments[enrollment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.enrollments[enrollment.ID] = enrollment
	m.updates++
	return nil
}

func (m *MockEnrollmentRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	var out []*models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *MockEnrollmentRepo) ExistsActive(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (bool, error) {
	for _, e := range m.enrollments {
		if e.StudentID != studentID || e.CourseID != courseID {
			continue
		}
		switch e.Status {
		case models.EnrollmentActive, models.EnrollmentCompleted, models.EnrollmentPaused:
			return true, nil
		}
	}
	return false, nil
}

// ===== SERVICE =====

type MockServiceRepo struct {
	repositories.ServiceRepository

	services      map[uint]*models.Service
	bookingDeltas map[uint]int
}

func (m *MockServiceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *MockServiceRepo) IncrementBookingCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error {
	m.bookingDeltas[id] += delta
	return nil
}

// ===== CONSULTANT =====

type MockConsultantRepo struct {
	repositories.ConsultantRepository

	consultants   map[uint]*models.Consultant
	bookingDeltas map[uint]int
}

func (m *MockConsultantRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Consultant, error) {
	c, ok := m.consultants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *MockConsultantRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Consultant, error) {
	for _, c := range m.consultants {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockConsultantRepo) IncrementBookingCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error {
	m.bookingDeltas[id] += delta
	return nil
}

// ===== USER =====

type MockUserRepo struct {
	repositories.UserRepository

	roles map[string][]models.UserRole
}

func (m *MockUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	for _, r := range m.roles[id] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

// ===== RATING =====

// MockRatingService records which aggregates the flows asked to recompute.
type MockRatingService struct {
	serviceIDs    []uint
	consultantIDs []uint
	courseIDs     []uint
}

func (m *MockRatingService) RecomputeConsultant(ctx context.Context, consultantID uint) error {
	m.consultantIDs = append(m.consultantIDs, consultantID)
	return nil
}

func (m *MockRatingService) RecomputeService(ctx context.Context, serviceID uint) error {
	m.serviceIDs = append(m.serviceIDs, serviceID)
	return nil
}

func (m *MockRatingService) RecomputeCourse(ctx context.Context, courseID uint) error {
	m.courseIDs = append(m.courseIDs, courseID)
	return nil
}
