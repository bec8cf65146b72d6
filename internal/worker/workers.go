package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fixkit/repair-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartOverdueSweeper periodically flags open loans past their due date.
// The sweep loop stops when the context is cancelled.
func StartOverdueSweeper(ctx context.Context, loanService *service.LoanService, interval time.Duration, logger *zap.Logger) {
	if loanService == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := loanService.SweepOverdue(ctx)
				if err != nil {
					logger.Error("overdue sweep failed", zap.Error(err))
					continue
				}
				if count > 0 {
					logger.Info("overdue sweep flagged loans", zap.Int("count", count))
				}
			}
		}
	}()
}
