package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateCourseCache invalidates all course-related caches using pipeline
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint, instructorID string) {
	SafeDelete(ctx, cm.Course,
		fmt.Sprintf("id:%d", courseID),
		fmt.Sprintf("details:%d", courseID))

	SafeInvalidatePattern(ctx, cm.Course, fmt.Sprintf("instructor:%s:*", instructorID))
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("course:%d:*", courseID))
}

// InvalidateServiceCache invalidates all service-related caches
func InvalidateServiceCache(ctx context.Context, cm *CacheManager, serviceID uint, consultantID uint) {
	SafeDelete(ctx, cm.Service, fmt.Sprintf("id:%d", serviceID))
	SafeInvalidatePattern(ctx, cm.Service, fmt.Sprintf("consultant:%d:*", consultantID))
	SafeInvalidatePattern(ctx, cm.Service, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("service:%d:*", serviceID))
}

// InvalidateBookingCache drops availability and consultant stat caches after
// a booking is created, rescheduled or changes status
func InvalidateBookingCache(ctx context.Context, cm *CacheManager, consultantID uint) {
	SafeInvalidatePattern(ctx, cm.Availability, fmt.Sprintf("consultant:%d:*", consultantID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("consultant:%d:*", consultantID))
}
