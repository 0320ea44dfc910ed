package services

import (
	"context"
	"io"
	"log/slog"

	"gatherly/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockEventRepository struct {
	events        map[string]*domain.Event
	err           error
	unlockUpdated bool
	unlockErr     error
	unlockCalls   int
}

func (m *mockEventRepository) Create(ctx context.Context, event *domain.Event) error { return nil }

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (m *mockEventRepository) UnlockLocation(ctx context.Context, id string) (bool, error) {
	m.unlockCalls++
	if m.unlockErr != nil {
		return false, m.unlockErr
	}
	return m.unlockUpdated, nil
}

type mockJoinRequestRepository struct {
	requests            map[string]*domain.JoinRequest
	byEventAndRequester map[string]*domain.JoinRequest // key eventID:userID
	createErr           error
	created             *domain.JoinRequest
	approveCount        int
	approveErr          error
	rejectErr           error
	rejectedNote        string
}

func (m *mockJoinRequestRepository) Create(ctx context.Context, req *domain.JoinRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	req.ID = "jr-new"
	m.created = req
	return nil
}

func (m *mockJoinRequestRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return req, nil
}

func (m *mockJoinRequestRepository) GetByEventAndRequester(ctx context.Context, eventID, requesterUserID string) (*domain.JoinRequest, error) {
	if m.byEventAndRequester != nil {
		if req, ok := m.byEventAndRequester[eventID+":"+requesterUserID]; ok {
			return req, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockJoinRequestRepository) ApproveWithSeat(ctx context.Context, requestID string) (int, error) {
	if m.approveErr != nil {
		return 0, m.approveErr
	}
	return m.approveCount, nil
}

func (m *mockJoinRequestRepository) Reject(ctx context.Context, requestID, note string) error {
	if m.rejectErr != nil {
		return m.rejectErr
	}
	m.rejectedNote = note
	return nil
}

type mockAttendeeRepository struct {
	attendees map[string]*domain.Attendee // key eventID:userID
	userIDs   []string
	listErr   error
	count     int
}

func (m *mockAttendeeRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Attendee, error) {
	if m.attendees != nil {
		if a, ok := m.attendees[eventID+":"+userID]; ok {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockAttendeeRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	return m.count, nil
}

func (m *mockAttendeeRepository) ListUserIDsByEventID(ctx context.Context, eventID string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.userIDs, nil
}

type mockEnqueuer struct {
	params []domain.EnqueueParams
	err    error
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, params domain.EnqueueParams) (*domain.NotificationQueueItem, error) {
	m.params = append(m.params, params)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.NotificationQueueItem{
		ID:      "q-new",
		Kind:    params.Kind,
		EventID: params.EventID,
		Status:  domain.QueueStatusQueued,
	}, nil
}

type mockQueueRepository struct {
	enqueueErr      error
	enqueued        []*domain.NotificationQueueItem
	claimItems      []*domain.NotificationQueueItem
	claimErr        error
	claimLimit      int
	sentIDs         []string
	markSentErr     error
	failedIDs       []string
	failedErrors    map[string]string
	summary         *domain.QueueSummary
	countErr        error
	recent          []*domain.NotificationQueueItem
	listLimit       int
	requeueIDs      []string
	requeueParams   domain.RequeueFailedParams
	requeueErr      error
	requeueOneID    string
	requeueOneReset bool
	requeueOneErr   error
}

func (m *mockQueueRepository) Enqueue(ctx context.Context, item *domain.NotificationQueueItem) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, item)
	return nil
}

func (m *mockQueueRepository) ClaimBatch(ctx context.Context, limit int) ([]*domain.NotificationQueueItem, error) {
	m.claimLimit = limit
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	return m.claimItems, nil
}

func (m *mockQueueRepository) MarkSent(ctx context.Context, id string) error {
	if m.markSentErr != nil {
		return m.markSentErr
	}
	m.sentIDs = append(m.sentIDs, id)
	return nil
}

func (m *mockQueueRepository) MarkFailed(ctx context.Context, id, lastError string) error {
	if m.failedErrors == nil {
		m.failedErrors = map[string]string{}
	}
	m.failedIDs = append(m.failedIDs, id)
	m.failedErrors[id] = lastError
	return nil
}

func (m *mockQueueRepository) CountByStatus(ctx context.Context) (*domain.QueueSummary, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	return m.summary, nil
}

func (m *mockQueueRepository) ListRecent(ctx context.Context, limit int) ([]*domain.NotificationQueueItem, error) {
	m.listLimit = limit
	return m.recent, nil
}

func (m *mockQueueRepository) RequeueFailed(ctx context.Context, params domain.RequeueFailedParams) ([]string, error) {
	m.requeueParams = params
	if m.requeueErr != nil {
		return nil, m.requeueErr
	}
	return m.requeueIDs, nil
}

func (m *mockQueueRepository) RequeueOne(ctx context.Context, id string, resetAttempts bool) error {
	m.requeueOneID = id
	m.requeueOneReset = resetAttempts
	return m.requeueOneErr
}

type mockUserRepository struct {
	users map[string]*domain.User
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

type mockLogRepository struct {
	entries []*domain.NotificationLog
	err     error
}

func (m *mockLogRepository) Create(ctx context.Context, entry *domain.NotificationLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockMailer struct {
	sent    []domain.OutboundMail
	result  domain.MailResult
	results map[string]domain.MailResult // per-recipient override
}

func (m *mockMailer) Send(ctx context.Context, mail domain.OutboundMail) domain.MailResult {
	m.sent = append(m.sent, mail)
	if m.results != nil {
		if r, ok := m.results[mail.To]; ok {
			return r
		}
	}
	return m.result
}

type textGeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f textGeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
