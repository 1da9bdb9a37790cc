package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCancelAndWait(t *testing.T) {
	t.Run("finishes fast enough", func(t *testing.T) {
		testJobs := Jobs{
			FakeJob("Job A", time.Millisecond*100),
			FakeJob("Job B", time.Millisecond*200),
		}

		before := time.Now()
		unfinished := testJobs.CancelAndWait(time.Second * 1)
		after := time.Now()
		assert.WithinDuration(t, after, before, time.Millisecond*500, "jobs did not finish fast enough")
		assert.Len(t, unfinished, 0)
	})
	t.Run("reports unfinished jobs", func(t *testing.T) {
		testJobs := Jobs{
			FakeJob("Job A", time.Millisecond*100),
			FakeJob("Job B", time.Second*10),
		}

		unfinished := testJobs.CancelAndWait(time.Millisecond * 500)
		assert.Equal(t, []string{"Job B"}, unfinished)
	})
}

func TestGo(t *testing.T) {
	t.Run("runs until canceled", func(t *testing.T) {
		job := Go("waiter", func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
		select {
		case <-job.Finished():
			t.Fatal("job finished before it was canceled")
		case <-time.After(50 * time.Millisecond):
		}
		assert.Empty(t, Jobs{job}.CancelAndWait(time.Second))
	})
	t.Run("finishes on error", func(t *testing.T) {
		job := Go("failing", func(ctx context.Context) error {
			return errors.New("nope")
		})
		select {
		case <-job.Finished():
		case <-time.After(time.Second):
			t.Fatal("job did not finish")
		}
	})
	t.Run("finishes on panic", func(t *testing.T) {
		job := Go("panicking", func(ctx context.Context) error {
			panic("oh no")
		})
		select {
		case <-job.Finished():
		case <-time.After(time.Second):
			t.Fatal("job did not finish")
		}
	})
}

func TestNoop(t *testing.T) {
	assert.Empty(t, Jobs{Noop()}.ListUnfinished())
}

func FakeJob(name string, timeout time.Duration) *Job {
	job := New(name)
	go func() {
		<-job.Ctx.Done()
		timer := time.NewTimer(timeout)
		<-timer.C
		job.Finish()
	}()
	return job
}
