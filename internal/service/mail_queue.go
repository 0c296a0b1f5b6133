package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeVerificationMail is the asynq task type for queued verification mails
const TypeVerificationMail = "mail:verification"

type verificationPayload struct {
	To   string `json:"to"`
	Code string `json:"code"`
}

// Enqueuer is the part of *asynq.Client QueueMailer needs
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueMailer hands verification mails to asynq so the request does not
// wait on SMTP. MailWorker does the actual delivery.
type QueueMailer struct {
	q Enqueuer
}

func NewQueueMailer(q Enqueuer) *QueueMailer {
	return &QueueMailer{q: q}
}

func (m *QueueMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	payload, err := json.Marshal(verificationPayload{To: to, Code: code})
	if err != nil {
		return err
	}

	info, err := m.q.EnqueueContext(ctx, asynq.NewTask(TypeVerificationMail, payload),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		// the code expires anyway, no point delivering it later than that
		asynq.Deadline(time.Now().Add(10*time.Minute)),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue verification mail, %w", err)
	}

	zap.L().Debug("Verification mail queued", zap.String("taskID", info.ID), zap.String("to", to))

	return nil
}

// MailWorker delivers queued mails with the wrapped mailer
type MailWorker struct {
	mailer Mailer
}

func NewMailWorker(m Mailer) *MailWorker {
	return &MailWorker{mailer: m}
}

func (w *MailWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeVerificationMail, w.HandleVerificationMail)

	return mux
}

func (w *MailWorker) HandleVerificationMail(ctx context.Context, t *asynq.Task) error {
	var p verificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// Malformed payloads never become valid, don't retry them
		return fmt.Errorf("bad verification mail payload, %v: %w", err, asynq.SkipRetry)
	}

	if err := w.mailer.SendVerificationCode(ctx, p.To, p.Code); err != nil {
		zap.L().Warn("Verification mail delivery failed", zap.String("to", p.To), zap.Error(err))
		return err
	}

	return nil
}

// StartMailWorker runs an asynq server for queued mails. Call Shutdown on
// the returned server when the app stops.
func StartMailWorker(opt asynq.RedisConnOpt, m Mailer, concurrency int) (*asynq.Server, error) {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			zap.L().Error("Mail task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	if err := srv.Start(NewMailWorker(m).Mux()); err != nil {
		return nil, fmt.Errorf("failed to start mail worker, %w", err)
	}

	return srv, nil
}
