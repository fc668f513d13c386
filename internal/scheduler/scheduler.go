package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/service"
)

const runTimeout = 10 * time.Minute

// Start runs the daily dispatch on a fixed interval. Intended to be launched
// in its own goroutine; dispatch records are deduplicated per calendar day,
// so an extra tick never double-sends.
func Start(notificationService service.NotificationService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	for {
		<-ticker.C
		run(notificationService)
	}
}

func run(notificationService service.NotificationService) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := notificationService.DispatchDaily(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Scheduled notification dispatch failed")
		return
	}

	logrus.Infof("Scheduled dispatch sent %d notifications across %d holidays",
		result.NotificationsSent, result.HolidaysProcessed)
}
