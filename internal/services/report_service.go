package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// reportService renders admin exports as xlsx workbooks.
type reportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

const reportPageSize = 1000

func (s *reportService) ExportRevenueReport(ctx context.Context, from, to time.Time) ([]byte, error) {
	s.logger.Info("Exporting revenue report", "from", from, "to", to)

	if !to.After(from) {
		return nil, ValidationErrors{{Field: "to", Message: "must be after from", Value: to}}
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	bookingRevenue, err := s.writeBookingsSheet(ctx, f, from, to)
	if err != nil {
		return nil, err
	}
	enrollmentRevenue, err := s.writeEnrollmentsSheet(ctx, f, from, to)
	if err != nil {
		return nil, err
	}
	if err := s.writeSummarySheet(f, from, to, bookingRevenue, enrollmentRevenue); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *reportService) writeBookingsSheet(ctx context.Context, f *excelize.File, from, to time.Time) (float64, error) {
	const sheet = "Bookings"
	// The default sheet becomes the first data sheet.
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return 0, fmt.Errorf("failed to create bookings sheet: %w", err)
	}

	headers := []string{"ID", "Kind", "Client", "Consultant", "Service", "Scheduled", "Status", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	completed := models.BookingCompleted
	total := 0.0
	row := 2
	offset := 0
	for {
		bookings, _, err := s.repo.Booking().List(ctx, s.db, repositories.BookingFilters{
			Status:   &completed,
			DateFrom: &from,
			DateTo:   &to,
			Limit:    reportPageSize,
			Offset:   offset,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to list bookings for report: %w", err)
		}
		for _, b := range bookings {
			values := []interface{}{
				b.ID, string(b.Kind), b.ClientID, b.ConsultantID, b.ServiceID,
				b.ScheduledDate.Format(time.RFC3339), string(b.Status), b.Amount,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return 0, fmt.Errorf("failed to write booking row: %w", err)
				}
			}
			total += b.Amount
			row++
		}
		if len(bookings) < reportPageSize {
			break
		}
		offset += reportPageSize
	}
	return total, nil
}

func (s *reportService) writeEnrollmentsSheet(ctx context.Context, f *excelize.File, from, to time.Time) (float64, error) {
	const sheet = "Enrollments"
	if _, err := f.NewSheet(sheet); err != nil {
		return 0, fmt.Errorf("failed to create enrollments sheet: %w", err)
	}

	headers := []string{"ID", "Student", "Course", "Status", "Progress", "Amount Paid", "Enrolled At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	total := 0.0
	row := 2
	offset := 0
	for {
		enrollments, _, err := s.repo.Enrollment().List(ctx, s.db, repositories.EnrollmentFilters{
			DateFrom: &from,
			DateTo:   &to,
			Limit:    reportPageSize,
			Offset:   offset,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to list enrollments for report: %w", err)
		}
		for _, e := range enrollments {
			values := []interface{}{
				e.ID, e.StudentID, e.CourseID, string(e.Status),
				e.ProgressOverall, e.AmountPaid, e.CreatedAt.Format(time.RFC3339),
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return 0, fmt.Errorf("failed to write enrollment row: %w", err)
				}
			}
			total += e.AmountPaid
			row++
		}
		if len(enrollments) < reportPageSize {
			break
		}
		offset += reportPageSize
	}
	return total, nil
}

func (s *reportService) writeSummarySheet(f *excelize.File, from, to time.Time, bookingRevenue, enrollmentRevenue float64) error {
	const sheet = "Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Period", fmt.Sprintf("%s - %s", from.Format("2006-01-02"), to.Format("2006-01-02"))},
		{"Booking revenue (completed)", bookingRevenue},
		{"Enrollment revenue", enrollmentRevenue},
		{"Total revenue", bookingRevenue + enrollmentRevenue},
		{"Generated at", time.Now().UTC().Format(time.RFC3339)},
	}
	for r, cols := range rows {
		for c, v := range cols {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
		}
	}
	return nil
}
