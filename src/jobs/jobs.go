package jobs

import (
	"context"
	"time"

	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/utils"
	"github.com/rs/zerolog"
)

/*
 * Background work (client config refresh, the dev backend, the diagram cache)
 * runs as Jobs so that the website command can cancel everything together and
 * wait for a graceful shutdown.
 */

// A Job tracks the completion of a background task.
type Job struct {
	Name   string
	Ctx    context.Context
	Logger zerolog.Logger
	cancel func()
	done   chan struct{}
}

func New(name string) *Job {
	logger := logging.With().Str("job", name).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logging.AttachLoggerToContext(&logger, ctx)
	return &Job{
		Name:   name,
		Ctx:    ctx,
		Logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Go starts fn in a goroutine as a new Job. The job finishes when fn returns;
// a returned error or panic is logged with the job's logger.
func Go(name string, fn func(ctx context.Context) error) *Job {
	job := New(name)
	go func() {
		defer job.Finish()
		var err error
		func() {
			defer utils.RecoverPanicAsError(&err)
			err = fn(job.Ctx)
		}()
		if err != nil {
			job.Logger.Error().Err(err).Msg("job exited with an error")
		}
	}()
	return job
}

// Noop returns an already-finished job, for optional features that are turned off.
func Noop() *Job {
	return New("noop").Finish()
}

// Sends a cancel signal to the Job. Expected to be called from outside the
// job, e.g. when shutting down the application.
func (j *Job) Cancel() {
	j.cancel()
}

// Returns a channel that is closed once Cancel has been called.
func (j *Job) Canceled() <-chan struct{} {
	return j.Ctx.Done()
}

// Marks the Job as finished. Expected to be called by the job itself.
func (j *Job) Finish() *Job {
	close(j.done)
	return j
}

// Returns a channel that is closed once Finish has been called.
func (j *Job) Finished() <-chan struct{} {
	return j.done
}

// Jobs is a list of jobs that are canceled and waited on together.
type Jobs []*Job

// Cancels all tracked jobs and waits for them to finish or for the timeout to
// expire. Returns the names of the jobs that did not finish on time.
func (jobs Jobs) CancelAndWait(timeout time.Duration) []string {
	allDoneChan := make(chan struct{})
	for _, job := range jobs {
		job.Cancel()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	go func() {
		for _, job := range jobs {
			<-job.Finished()
		}
		close(allDoneChan)
	}()

	select {
	case <-timer.C:
		return jobs.ListUnfinished()
	case <-allDoneChan:
		return nil
	}
}

func (jobs Jobs) ListUnfinished() []string {
	unfinished := []string{}
	for _, job := range jobs {
		select {
		case <-job.Finished():
			continue
		default:
			unfinished = append(unfinished, job.Name)
		}
	}
	return unfinished
}
