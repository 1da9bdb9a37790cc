// Package siteconfig holds the feature flags the backend publishes for
// front-ends, such as whether comments are enabled.
package siteconfig

import (
	"context"
	"time"

	"git.blogfront.dev/blogfront/src/ambient"
	"git.blogfront.dev/blogfront/src/jobs"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/oops"
	"git.blogfront.dev/blogfront/src/utils"
	"github.com/jpillora/backoff"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Fetcher interface {
	GetClientConfig(ctx context.Context) (models.ClientConfig, error)
}

// Holder starts out empty, which means every flag has its default.
type Holder struct {
	*ambient.Value[models.ClientConfig]
}

func NewHolder() *Holder {
	return &Holder{Value: ambient.New(models.ClientConfig{})}
}

func (h *Holder) CommentEnabled() bool {
	return h.Get().CommentEnabled()
}

func (h *Holder) CounterEnabled() bool {
	return h.Get().CounterEnabled()
}

func (h *Holder) Refresh(ctx context.Context, fetcher Fetcher) error {
	cfg, err := fetcher.GetClientConfig(ctx)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = models.ClientConfig{}
	}
	h.Set(cfg)
	return nil
}

const initialAttempts = 5

// RunRefresher loads the config once, retrying with backoff, and then
// reloads it on schedule until the job is canceled.
func RunRefresher(h *Holder, fetcher Fetcher, schedule string) (*jobs.Job, error) {
	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, oops.New(err, "invalid client config refresh schedule %q", schedule)
	}

	return jobs.Go("client config", func(ctx context.Context) error {
		log := logging.ExtractLogger(ctx)

		boff := backoff.Backoff{
			Min:    500 * time.Millisecond,
			Max:    30 * time.Second,
			Factor: 2,
			Jitter: true,
		}
		for attempt := 1; attempt <= initialAttempts; attempt++ {
			err := h.Refresh(ctx, fetcher)
			if err == nil {
				log.Debug().Msg("loaded client config")
				break
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("failed to load client config")
			if attempt == initialAttempts {
				log.Warn().Msg("giving up on initial client config, using defaults until the next refresh")
				break
			}
			if err := utils.SleepContext(ctx, boff.Duration()); err != nil {
				return nil
			}
		}

		c := cron.New(cron.WithLogger(cronLogger{log}))
		c.Schedule(parsed, cron.FuncJob(func() {
			if err := h.Refresh(ctx, fetcher); err != nil {
				log.Warn().Err(err).Msg("failed to refresh client config")
			}
		}))
		c.Start()

		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	}), nil
}

// cronLogger sends the scheduler's own messages to zerolog.
type cronLogger struct {
	log *zerolog.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Trace().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
