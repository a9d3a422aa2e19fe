package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteowlz/diffbot/pkg/diffbot"
)

type step struct {
	status diffbot.JobStatusCode
	err    error
}

type fakeJob struct {
	steps []step
	calls int
}

func (f *fakeJob) Name() string { return "job-1" }

func (f *fakeJob) FetchJobStatus(context.Context) (diffbot.JobStatus, error) {
	s := f.steps[min(f.calls, len(f.steps)-1)]
	f.calls++
	if s.err != nil {
		return diffbot.JobStatus{}, s.err
	}
	return diffbot.JobStatus{Status: s.status, Message: s.status.String()}, nil
}

func fast() Options {
	return Options{Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestWait_UntilCompleted(t *testing.T) {
	job := &fakeJob{steps: []step{
		{status: diffbot.StatusInitializing},
		{status: diffbot.StatusInProgress},
		{status: diffbot.StatusCompleted},
	}}
	var seen []diffbot.JobStatusCode
	opts := fast()
	opts.OnStatus = func(s diffbot.JobStatus) { seen = append(seen, s.Status) }

	status, err := Wait(context.Background(), job, opts)
	require.NoError(t, err)
	assert.True(t, status.Completed())
	assert.Equal(t, 3, job.calls)
	assert.Equal(t, []diffbot.JobStatusCode{0, 7, 9}, seen)
}

func TestWait_RetriesTransportErrors(t *testing.T) {
	job := &fakeJob{steps: []step{
		{err: &diffbot.Error{Kind: diffbot.KindTransport, Message: "request failed"}},
		{status: diffbot.StatusCompleted},
	}}
	_, err := Wait(context.Background(), job, fast())
	require.NoError(t, err)
	assert.Equal(t, 2, job.calls)
}

func TestWait_StopsOnPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind diffbot.ErrorKind
	}{
		{"not found", &diffbot.Error{Kind: diffbot.KindNotFound, Job: "job-1"}, diffbot.KindNotFound},
		{"response", &diffbot.Error{Kind: diffbot.KindResponse, Code: 401, Message: "bad token"}, diffbot.KindResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &fakeJob{steps: []step{{err: tt.err}, {status: diffbot.StatusCompleted}}}
			_, err := Wait(context.Background(), job, fast())
			assert.True(t, diffbot.IsKind(err, tt.kind), "got %v", err)
			assert.Equal(t, 1, job.calls)
		})
	}
}

func TestWait_StopOnStatus(t *testing.T) {
	job := &fakeJob{steps: []step{
		{status: diffbot.StatusInProgress},
		{status: diffbot.StatusSeedsFailed},
	}}
	status, err := Wait(context.Background(), job, fast())
	assert.True(t, diffbot.IsKind(err, diffbot.KindJobStatus), "got %v", err)
	assert.Equal(t, diffbot.StatusSeedsFailed, status.Status)

	var de *diffbot.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, diffbot.StatusSeedsFailed, de.Status)
}

func TestWait_MaxWait(t *testing.T) {
	job := &fakeJob{steps: []step{{status: diffbot.StatusInProgress}}}
	opts := fast()
	opts.MaxWait = 20 * time.Millisecond

	status, err := Wait(context.Background(), job, opts)
	assert.True(t, diffbot.IsKind(err, diffbot.KindJobStatus), "got %v", err)
	assert.Equal(t, diffbot.StatusInProgress, status.Status)
	assert.Greater(t, job.calls, 1)
}

func TestWait_ContextCancelled(t *testing.T) {
	job := &fakeJob{steps: []step{{status: diffbot.StatusPaused}}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Wait(ctx, job, fast())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
