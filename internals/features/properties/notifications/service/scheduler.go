package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 4 * time.Minute

// StartScheduler registers the hourly digest run and, when enabled, the
// change poller. Overlapping runs of the same job are skipped. The caller
// stops the returned cron on shutdown.
func StartScheduler(svc *NotificationService) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if _, err := c.AddFunc(svc.Conf.DigestCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		sum, err := svc.RunAllDigests(ctx)
		if err != nil {
			svc.Log.Error("[DIGEST-CRON] run failed", zap.Error(err))
			return
		}
		svc.Log.Info("[DIGEST-CRON] done", zap.Int("checked", sum.Checked), zap.Int("flushed", sum.Flushed))
	}); err != nil {
		return nil, fmt.Errorf("digest cron %q: %w", svc.Conf.DigestCron, err)
	}

	if svc.Conf.ChangePollEnable {
		if _, err := c.AddFunc(svc.Conf.ChangePollCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			n, err := svc.PollChanges(ctx)
			if err != nil {
				svc.Log.Error("[CHANGE-POLL] failed", zap.Error(err))
				return
			}
			if n > 0 {
				svc.Log.Info("[CHANGE-POLL] queued", zap.Int("changes", n))
			}
		}); err != nil {
			return nil, fmt.Errorf("change poll cron %q: %w", svc.Conf.ChangePollCron, err)
		}
	}

	svc.Log.Info("[NOTIFY] scheduler started",
		zap.String("digest", svc.Conf.DigestCron),
		zap.Bool("poll", svc.Conf.ChangePollEnable),
		zap.String("poll_schedule", svc.Conf.ChangePollCron))
	c.Start()
	return c, nil
}
