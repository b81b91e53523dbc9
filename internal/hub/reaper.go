package hub

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l cronLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
func (l cronLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l cronLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }

// StartReaper removes rooms idle for ttl every interval. The caller owns the
// returned scheduler and must Shutdown it.
func (h *Hub) StartReaper(interval, ttl time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithClock(h.clock),
		gocron.WithLogger(cronLogger{h.log.Sugar()}),
	)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
			defer cancel()
			if _, err := h.Reap(ctx, ttl); err != nil {
				h.log.Warn("room reaper failed", zap.Error(err))
			}
		}),
		gocron.WithName("room-reaper"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	return s, nil
}
