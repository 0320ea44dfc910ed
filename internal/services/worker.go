package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gatherly/internal/domain"
)

type workerService struct {
	queueRepo domain.NotificationQueueRepository
	logRepo   domain.NotificationLogRepository
	eventRepo domain.EventRepository
	userRepo  domain.UserRepository
	notices   domain.NoticeGenerator
	mailer    domain.Mailer
	logger    *slog.Logger
	batchSize int
}

// NewWorkerService creates the queue worker. Each ProcessBatch call claims
// at most batchSize queued items, renders and dispatches each one, and
// records the outcome. There is no automatic retry; failed items wait for
// operator-driven requeue.
func NewWorkerService(
	queueRepo domain.NotificationQueueRepository,
	logRepo domain.NotificationLogRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	notices domain.NoticeGenerator,
	mailer domain.Mailer,
	logger *slog.Logger,
	batchSize int,
) domain.WorkerService {
	if batchSize <= 0 {
		batchSize = 25
	}
	return &workerService{
		queueRepo: queueRepo,
		logRepo:   logRepo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		notices:   notices,
		mailer:    mailer,
		logger:    logger,
		batchSize: batchSize,
	}
}

func (s *workerService) ProcessBatch(ctx context.Context) (*domain.WorkerReport, error) {
	items, err := s.queueRepo.ClaimBatch(ctx, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}

	report := &domain.WorkerReport{Claimed: len(items)}
	for _, item := range items {
		recipient, err := s.process(ctx, item)
		if err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "notification dispatch failed",
				"queue_id", item.ID, "kind", item.Kind, "err", err)
			if merr := s.queueRepo.MarkFailed(ctx, item.ID, err.Error()); merr != nil {
				s.logger.ErrorContext(ctx, "mark failed did not stick; item stuck in processing",
					"queue_id", item.ID, "err", merr)
			}
			s.writeLog(ctx, item.Kind, "failed", recipient)
			continue
		}
		report.Sent++
		if merr := s.queueRepo.MarkSent(ctx, item.ID); merr != nil {
			s.logger.ErrorContext(ctx, "mark sent did not stick; item may be re-sent on requeue",
				"queue_id", item.ID, "err", merr)
		}
		s.writeLog(ctx, item.Kind, "sent", recipient)
	}
	return report, nil
}

// process renders and dispatches one claimed item. It returns the resolved
// recipient email (possibly empty) for log bookkeeping.
func (s *workerService) process(ctx context.Context, item *domain.NotificationQueueItem) (string, error) {
	recipient, err := s.resolveRecipient(ctx, item)
	if err != nil {
		return "", err
	}

	notice := s.notices.GenerateNotice(ctx, item.Kind, s.noticeContext(ctx, item))
	if notice.Err != "" {
		s.logger.DebugContext(ctx, "notice copy fell back to template",
			"queue_id", item.ID, "kind", item.Kind, "err", notice.Err)
	}

	res := s.mailer.Send(ctx, domain.OutboundMail{
		To:      recipient,
		Subject: notice.Subject,
		Text:    notice.Text,
	})
	if !res.OK {
		return recipient, fmt.Errorf("%s: %s", res.ErrCode, res.ErrMessage)
	}
	return recipient, nil
}

// resolveRecipient maps the item's kind to the user whose email receives the
// notice: the host for request_created, the requester for approved/rejected,
// and the per-item user for location_unlocked.
func (s *workerService) resolveRecipient(ctx context.Context, item *domain.NotificationQueueItem) (string, error) {
	var userID string
	switch item.Kind {
	case domain.KindRequestCreated:
		userID = item.UserID
		if userID == "" {
			event, err := s.eventRepo.GetByID(ctx, item.EventID)
			if err != nil {
				return "", fmt.Errorf("resolve host: %w", err)
			}
			userID = event.HostUserID
		}
	case domain.KindApproved, domain.KindRejected:
		userID = item.RequesterID
	case domain.KindLocationUnlocked:
		userID = item.UserID
	default:
		return "", fmt.Errorf("unknown notification kind %q", item.Kind)
	}
	if userID == "" {
		return "", errors.New("queue item has no recipient reference")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve recipient %s: %w", userID, err)
	}
	if user.Email == "" {
		return "", fmt.Errorf("recipient %s has no email", userID)
	}
	return user.Email, nil
}

// noticeContext builds copy context from the item payload, falling back to
// store lookups for anything the enqueuer did not capture.
func (s *workerService) noticeContext(ctx context.Context, item *domain.NotificationQueueItem) domain.NoticeContext {
	nctx := domain.NoticeContext{
		EventTitle:    payloadString(item.Payload, "event_title"),
		EventDateTime: payloadString(item.Payload, "event_datetime"),
		HostName:      payloadString(item.Payload, "host_name"),
		HostNote:      payloadString(item.Payload, "note"),
	}
	if nctx.EventTitle != "" {
		return nctx
	}
	event, err := s.eventRepo.GetByID(ctx, item.EventID)
	if err != nil {
		s.logger.DebugContext(ctx, "event lookup for notice context failed",
			"queue_id", item.ID, "event_id", item.EventID, "err", err)
		return nctx
	}
	nctx.EventTitle = event.Title
	if nctx.EventDateTime == "" {
		nctx.EventDateTime = event.Date + " " + event.Time
	}
	if nctx.HostName == "" {
		if host, err := s.userRepo.GetByID(ctx, event.HostUserID); err == nil {
			nctx.HostName = host.Name
		}
	}
	return nctx
}

func (s *workerService) writeLog(ctx context.Context, kind domain.NotificationKind, status, recipient string) {
	entry := &domain.NotificationLog{
		Kind:           kind,
		Status:         status,
		RecipientEmail: recipient,
		CreatedAt:      time.Now(),
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "notification log write failed", "kind", kind, "err", err)
	}
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
