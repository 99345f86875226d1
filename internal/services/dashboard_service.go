package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *dashboardService) GetPlatformStats(ctx context.Context, userID string) (*DashboardStats, error) {
	s.logger.Info("Getting platform stats", "user_id", userID)

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(userID, 0, "dashboard", "read", "admin role required")
	}

	dash := s.repo.Dashboard()

	totalCourses, err := dash.GetTotalCourses(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get total courses: %w", err)
	}
	totalServices, err := dash.GetTotalServices(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get total services: %w", err)
	}
	totalConsultants, err := dash.GetTotalConsultants(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get total consultants: %w", err)
	}
	totalBookings, err := dash.GetTotalBookings(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get total bookings: %w", err)
	}
	totalEnrollments, err := dash.GetTotalEnrollments(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get total enrollments: %w", err)
	}
	activeClients, err := dash.GetActiveClients(ctx, nil, 30)
	if err != nil {
		return nil, fmt.Errorf("failed to get active clients: %w", err)
	}

	completionRate, err := dash.GetBookingCompletionRate(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion rate: %w", err)
	}
	cancellationRate, err := dash.GetCancellationRate(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get cancellation rate: %w", err)
	}

	now := time.Now().UTC()
	yearStart := now.AddDate(-1, 0, 0)

	totalRevenue, err := dash.GetTotalRevenue(ctx, nil, yearStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get total revenue: %w", err)
	}

	stats := &DashboardStats{
		TotalCourses:     totalCourses,
		TotalServices:    totalServices,
		TotalConsultants: totalConsultants,
		TotalBookings:    totalBookings,
		TotalEnrollments: totalEnrollments,
		ActiveClients:    activeClients,
		CompletionRate:   completionRate,
		CancellationRate: cancellationRate,
		TotalRevenue:     totalRevenue,
	}

	// Trend and ranking blocks are decorative: a failure degrades the
	// dashboard instead of breaking it.
	if trend, err := dash.GetRevenueByPeriod(ctx, nil, yearStart, now); err != nil {
		s.logger.Warn("Failed to get revenue trend", "error", err)
	} else {
		stats.RevenueTrend = trend
	}
	if trend, err := dash.GetBookingTrends(ctx, nil, "month"); err != nil {
		s.logger.Warn("Failed to get booking trends", "error", err)
	} else {
		stats.BookingTrend = trend
	}
	if recent, err := dash.GetRecentBookings(ctx, nil, 10); err != nil {
		s.logger.Warn("Failed to get recent bookings", "error", err)
	} else {
		stats.RecentBookings = recent
	}
	if top, err := dash.GetTopConsultants(ctx, nil, 5); err != nil {
		s.logger.Warn("Failed to get top consultants", "error", err)
	} else {
		stats.TopConsultants = top
	}
	if top, err := dash.GetTopCourses(ctx, nil, 5); err != nil {
		s.logger.Warn("Failed to get top courses", "error", err)
	} else {
		stats.TopCourses = top
	}

	return stats, nil
}
