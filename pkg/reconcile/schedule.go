package reconcile

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Repeat runs pass immediately and then every interval until ctx is done. Each
// run is independent: a failed pass is logged and the next tick still fires.
// A zero interval runs pass once and returns its error.
func Repeat(ctx context.Context, log *logrus.Entry, interval time.Duration, pass func(context.Context) error) error {
	err := pass(ctx)
	if interval <= 0 {
		return err
	}
	if err != nil {
		log.WithError(err).Error("Pass failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("Next pass in %s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping periodic passes")
			return nil
		case <-ticker.C:
			if err := pass(ctx); err != nil {
				log.WithError(err).Error("Pass failed")
			}
			log.Infof("Next pass in %s", interval)
		}
	}
}
