package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct{ to, code string }

type captureMailer struct {
	sent []sentMail
	err  error
}

func (m *captureMailer) SendVerificationCode(_ context.Context, to, code string) error {
	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, sentMail{to, code})
	return nil
}

type captureQueue struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
}

func (q *captureQueue) EnqueueContext(_ context.Context, t *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, t)
	q.opts = append(q.opts, opts)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func TestVerificationMessage(t *testing.T) {
	m, err := NewVerificationMessage("noreply@x.com", "a@x.com", "12345678", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"noreply@x.com"}, m.GetHeader("From"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "12345678")
	assert.Contains(t, buf.String(), "valid for 10 minutes")

	_, err = NewVerificationMessage("noreply@x.com", "noreply@x.com", "1", time.Minute)
	assert.Error(t, err)
}

func TestQueueMailer_RoundTripsThroughWorker(t *testing.T) {
	q := &captureQueue{}
	require.NoError(t, NewQueueMailer(q).SendVerificationCode(context.Background(), "a@x.com", "87654321"))

	require.Len(t, q.tasks, 1)
	assert.Equal(t, TypeVerificationMail, q.tasks[0].Type())
	assert.NotEmpty(t, q.opts[0])

	mailer := &captureMailer{}
	w := NewMailWorker(mailer)
	require.NoError(t, w.HandleVerificationMail(context.Background(), q.tasks[0]))

	assert.Equal(t, []sentMail{{"a@x.com", "87654321"}}, mailer.sent)
}

func TestMailWorker_Failures(t *testing.T) {
	w := NewMailWorker(&captureMailer{err: errors.New("smtp down")})

	err := w.HandleVerificationMail(context.Background(), asynq.NewTask(TypeVerificationMail, []byte(`{"to":"a@x.com","code":"1"}`)))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	err = w.HandleVerificationMail(context.Background(), asynq.NewTask(TypeVerificationMail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeDeleter struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakeDeleter) DeleteUnverifiedBefore(_ context.Context, t time.Time) (int64, error) {
	f.cutoff = t
	return f.n, f.err
}

func TestAccountCleanup(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	d := &fakeDeleter{n: 3}

	a := NewAccountCleanup(d, 7*24*time.Hour)
	a.now = func() time.Time { return now }

	n, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, now.Add(-7*24*time.Hour), d.cutoff)

	d.err = errors.New("db down")
	_, err = a.Run(context.Background())
	assert.Error(t, err)
}

func TestAccountCleanup_ScheduleRejectsBadSpec(t *testing.T) {
	a := NewAccountCleanup(&fakeDeleter{}, time.Hour)

	_, err := a.Schedule("not a spec")
	require.Error(t, err)

	c, err := a.Schedule("@daily")
	require.NoError(t, err)
	defer c.Stop()

	require.Len(t, c.Entries(), 1)
	assert.True(t, strings.Contains(c.Entries()[0].Next.String(), "00:00:00"))
}
