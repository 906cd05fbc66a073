package main

import (
	"context"
	"time"

	"github.com/hairlens/hairlens"
	"github.com/sirupsen/logrus"
)

// runCleanup sweeps expired sessions every interval until ctx is done.
// Non positive interval disables the sweep.
func runCleanup(ctx context.Context, sessions hairlens.SessionService, interval time.Duration) {
	if interval <= 0 {
		logrus.Infoln("Periodic session cleanup disabled.")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := sessions.CleanupExpired(ctx)
			if err != nil {
				logrus.WithError(err).Errorln("Could not clean up expired sessions.")
				continue
			}
			if result.DeletedCount > 0 {
				logrus.WithField("deleted", result.DeletedCount).Infoln("Expired sessions cleaned up.")
			}
		}
	}
}
