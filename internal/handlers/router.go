package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/skillbridge/marketplace-service/internal/config"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/services"
	"github.com/skillbridge/marketplace-service/internal/utils"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

type HandlerManager struct {
	bookingHandler    *BookingHandler
	courseHandler     *CourseHandler
	enrollmentHandler *EnrollmentHandler
	serviceHandler    *ServiceHandler
	consultantHandler *ConsultantHandler
	categoryHandler   *CategoryHandler
	adminHandler      *AdminHandler
	userHandler       *UserHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		bookingHandler:    NewBookingHandler(serviceManager.Booking(), validator, logger),
		courseHandler:     NewCourseHandler(serviceManager.Course(), serviceManager.Enrollment(), validator, logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), validator, logger),
		serviceHandler:    NewServiceHandler(serviceManager.ServiceCatalog(), validator, logger),
		consultantHandler: NewConsultantHandler(serviceManager.Consultant(), validator, logger),
		categoryHandler:   NewCategoryHandler(serviceManager.Category(), validator, logger),
		adminHandler: NewAdminHandler(
			serviceManager.Dashboard(),
			serviceManager.Report(),
			serviceManager.Partner(),
			serviceManager.Consultant(),
			validator,
			logger,
		),
		userHandler:    NewUserHandler(userRepo, logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public catalog routes. Optional auth: a valid token is honored so
	// responses can carry per-user capability flags, but none is required.
	catalog := v1.Group("")
	catalog.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		catalog.GET("/courses", hm.courseHandler.ListCourses)
		catalog.GET("/courses/search", hm.courseHandler.SearchCourses)
		catalog.GET("/courses/:id", hm.courseHandler.GetCourse)
		catalog.GET("/courses/:id/details", hm.courseHandler.GetCourseWithDetails)
		catalog.GET("/courses/instructor/:instructor_id", hm.courseHandler.GetCoursesByInstructor)

		catalog.GET("/services", hm.serviceHandler.ListServices)
		catalog.GET("/services/search", hm.serviceHandler.SearchServices)
		catalog.GET("/services/:id", hm.serviceHandler.GetService)
		catalog.GET("/services/consultant/:consultant_id", hm.serviceHandler.GetServicesByConsultant)

		catalog.GET("/consultants", hm.consultantHandler.ListConsultants)
		catalog.GET("/consultants/:id", hm.consultantHandler.GetConsultant)

		catalog.GET("/categories", hm.categoryHandler.ListCategories)
		catalog.GET("/categories/:id", hm.categoryHandler.GetCategory)
		catalog.GET("/categories/slug/:slug", hm.categoryHandler.GetCategoryBySlug)
	}

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Booking routes - ownership is enforced in the service layer
		bookings := authed.Group("/bookings")
		{
			bookings.POST("", hm.bookingHandler.CreateBooking)
			bookings.GET("", hm.bookingHandler.ListBookings)
			bookings.GET("/availability", hm.bookingHandler.GetAvailableSlots)
			bookings.GET("/check-availability", hm.bookingHandler.CheckAvailability)
			bookings.GET("/:id", hm.bookingHandler.GetBooking)
			bookings.PUT("/:id/reschedule", hm.bookingHandler.RescheduleBooking)
			bookings.PUT("/:id/status", hm.bookingHandler.UpdateBookingStatus)
			bookings.POST("/:id/feedback", hm.bookingHandler.SubmitBookingFeedback)

			bookings.GET("/client/:client_id", hm.bookingHandler.GetBookingsByClient)
			bookings.GET("/consultant/:consultant_id", hm.bookingHandler.GetBookingsByConsultant)
			bookings.GET("/consultant/:consultant_id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleConsultant, models.RoleAdmin), hm.bookingHandler.GetConsultantBookingStats)
		}

		// Course management - Instructors and Admins only
		courses := authed.Group("/courses")
		{
			courses.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.CreateCourse)
			courses.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.DeleteCourse)
			courses.POST("/:id/publish", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.PublishCourse)
			courses.POST("/:id/archive", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.ArchiveCourse)
			courses.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.GetCourseStats)

			// Enrollment entry point - any authenticated user
			courses.POST("/:id/enroll", hm.courseHandler.EnrollInCourse)
		}

		// Enrollment routes - ownership is enforced in the service layer
		enrollments := authed.Group("/enrollments")
		{
			enrollments.GET("", hm.enrollmentHandler.ListEnrollments)
			enrollments.GET("/:id", hm.enrollmentHandler.GetEnrollment)
			enrollments.PUT("/:id/progress", hm.enrollmentHandler.UpdateEnrollmentProgress)
			enrollments.PUT("/:id/status", hm.enrollmentHandler.UpdateEnrollmentStatus)
			enrollments.POST("/:id/review", hm.enrollmentHandler.SubmitEnrollmentReview)

			enrollments.GET("/student/:student_id", hm.enrollmentHandler.GetEnrollmentsByStudent)
		}

		// Service catalog management - Consultants and Admins only
		servicesGroup := authed.Group("/services")
		{
			servicesGroup.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleConsultant, models.RoleAdmin), hm.serviceHandler.CreateService)
			servicesGroup.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleConsultant, models.RoleAdmin), hm.serviceHandler.UpdateService)
			servicesGroup.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleConsultant, models.RoleAdmin), hm.serviceHandler.DeactivateService)
		}

		// Consultant profile routes
		consultants := authed.Group("/consultants")
		{
			consultants.POST("", hm.consultantHandler.ApplyAsConsultant)
			consultants.GET("/me", hm.authMiddleware.RequireRoleMiddleware(models.RoleConsultant), hm.consultantHandler.GetMyConsultantProfile)
			consultants.PUT("/:id", hm.consultantHandler.UpdateConsultantProfile)
		}

		// Category management - Admins only
		categories := authed.Group("/categories")
		categories.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			categories.POST("", hm.categoryHandler.CreateCategory)
			categories.PUT("/:id", hm.categoryHandler.UpdateCategory)
			categories.DELETE("/:id", hm.categoryHandler.DeleteCategory)
		}

		// User routes (directory lookups)
		users := authed.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/search", hm.userHandler.SearchUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}

		// Admin routes - Admins only
		admin := authed.Group("/admin")
		admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.GET("/dashboard", hm.adminHandler.GetDashboardStats)
			admin.GET("/reports/revenue", hm.adminHandler.ExportRevenueReport)

			admin.GET("/consultants/pending", hm.adminHandler.GetPendingConsultants)
			admin.PUT("/consultants/:id/approval", hm.adminHandler.UpdateConsultantApproval)

			admin.POST("/partners", hm.adminHandler.CreatePartner)
			admin.GET("/partners", hm.adminHandler.ListPartners)
			admin.GET("/partners/:id", hm.adminHandler.GetPartner)
			admin.PUT("/partners/:id", hm.adminHandler.UpdatePartner)
			admin.DELETE("/partners/:id", hm.adminHandler.DeletePartner)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "marketplace-service",
		})
	})
}
