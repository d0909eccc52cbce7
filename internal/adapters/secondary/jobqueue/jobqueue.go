/*
Package jobqueue carries business events from order and catalog collaborators
to the notification dispatcher on a River queue stored in the same Postgres
database as the conversations.

Jobs run once. A failed emit is logged and recorded on the River job row; it
is never retried, so a vendor never sees the same notification twice.
*/
package jobqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// BusinessEventArgs is the job payload for one business event.
type BusinessEventArgs struct {
	Event domain.BusinessEvent `json:"event"`
}

// Kind returns the job kind for River
func (BusinessEventArgs) Kind() string {
	return "business_event"
}

// InsertOpts pins business events to their queue and a single attempt.
func (BusinessEventArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: 1,
	}
}

// BusinessEventWorker turns business events into vendor notifications.
type BusinessEventWorker struct {
	river.WorkerDefaults[BusinessEventArgs]
	notifications ports.NotificationService
	logger        *slog.Logger
}

// NewBusinessEventWorker creates a worker that emits through the dispatcher.
func NewBusinessEventWorker(notifications ports.NotificationService, logger *slog.Logger) *BusinessEventWorker {
	return &BusinessEventWorker{
		notifications: notifications,
		logger:        logger.With("component", "business_event_worker"),
	}
}

// Work emits the notification for one event.
func (w *BusinessEventWorker) Work(ctx context.Context, job *river.Job[BusinessEventArgs]) error {
	event := job.Args.Event

	n, err := w.notifications.HandleBusinessEvent(ctx, event)
	if err != nil {
		w.logger.Warn("business event not delivered",
			slog.Int64("job_id", job.ID),
			slog.String("type", event.Type),
			slog.String("vendor_profile_id", event.VendorProfileID.String()),
			slog.String("error", err.Error()),
		)
		if apperrors.IsValidation(err) {
			return river.JobCancel(err)
		}
		return fmt.Errorf("emit notification: %w", err)
	}

	w.logger.Debug("business event delivered",
		slog.Int64("job_id", job.ID),
		slog.Int64("notification_id", n.ID),
	)
	return nil
}

// Queue manages the River client for business events.
type Queue struct {
	client    *river.Client[pgx.Tx]
	directory ports.ParticipantDirectory
	logger    *slog.Logger
}

var _ ports.BusinessEventQueue = (*Queue)(nil)

// NewQueue creates a queue whose workers hand events to the dispatcher.
// directory resolves vendor profiles at enqueue time.
func NewQueue(
	pool *pgxpool.Pool,
	cfg Config,
	notifications ports.NotificationService,
	directory ports.ParticipantDirectory,
	logger *slog.Logger,
) (*Queue, error) {
	cfg = cfg.withDefaults()

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, NewBusinessEventWorker(notifications, logger)); err != nil {
		return nil, fmt.Errorf("failed to register business event worker: %w", err)
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:            cfg.riverQueues(),
		Workers:           workers,
		JobTimeout:        cfg.JobTimeout,
		FetchPollInterval: cfg.FetchPollInterval,
		Logger:            logger.With("component", "river"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Queue{
		client:    client,
		directory: directory,
		logger:    logger.With("component", "job_queue"),
	}, nil
}

// Start starts the queue workers.
func (q *Queue) Start(ctx context.Context) error {
	if err := q.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	q.logger.Info("job queue started", slog.String("queue", QueueName))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (q *Queue) Stop(ctx context.Context) error {
	return q.client.Stop(ctx)
}

// Enqueue validates the event and inserts a job for it. Everything the worker
// would reject, including an unknown vendor profile, is rejected here instead.
func (q *Queue) Enqueue(ctx context.Context, event domain.BusinessEvent) error {
	params, err := event.ToNotificationParams()
	if err != nil {
		return err
	}
	if _, err := domain.NewNotification(params); err != nil {
		return err
	}

	known, err := q.directory.Exists(ctx, domain.ChannelVendor, params.VendorProfileID)
	if err != nil {
		return err
	}
	if !known {
		return apperrors.ErrScopeUnresolved
	}

	if _, err := q.client.Insert(ctx, BusinessEventArgs{Event: event}, nil); err != nil {
		return apperrors.StoreError("jobqueue.Enqueue", err)
	}
	return nil
}

// Migrate brings River's own schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("failed to migrate River schema: %w", err)
	}
	for _, v := range res.Versions {
		logger.Info("applied River migration", slog.Int("version", v.Version))
	}
	return nil
}
