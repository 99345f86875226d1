package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

func TestNewReportService(t *testing.T) {
	type args struct {
		repo   repositories.Repository
		db     *gorm.DB
		logger *slog.Logger
	}
	tests := []struct {
		name string
		args args
		want ReportService
	}{
		{
			name: "ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewReportService(tt.args.repo, tt.args.db, tt.args.logger)
		})
	}
}

func TestExportRevenueReport_RejectsInvertedPeriod(t *testing.T) {
	svc := &reportService{logger: slog.Default()}

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, -1, 0)

	if _, err := svc.ExportRevenueReport(context.Background(), from, to); err == nil {
		t.Error("Expected error when the period end precedes the start")
	}
}
