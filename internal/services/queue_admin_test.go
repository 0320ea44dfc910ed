package services

import (
	"context"
	"errors"
	"testing"

	"gatherly/internal/domain"
)

func TestQueueAdminService_Peek(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default limit", 0, DefaultPeekLimit},
		{"explicit limit", 10, 10},
		{"clamped to max", 5000, MaxPeekLimit},
		{"negative uses default", -3, DefaultPeekLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockQueueRepository{
				summary: &domain.QueueSummary{Queued: 2, Failed: 1},
			}
			svc := NewQueueAdminService(repo)

			got, err := svc.Peek(context.Background(), tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.listLimit != tt.wantLimit {
				t.Errorf("expected list limit %d, got %d", tt.wantLimit, repo.listLimit)
			}
			if got.Summary.Queued != 2 || got.Summary.Failed != 1 {
				t.Errorf("unexpected summary: %+v", got.Summary)
			}
			if got.Recent == nil {
				t.Error("expected non-nil recent slice")
			}
		})
	}
}

func TestQueueAdminService_RequeueFailed(t *testing.T) {
	repo := &mockQueueRepository{requeueIDs: []string{"q1", "q2"}}
	svc := NewQueueAdminService(repo)

	got, err := svc.RequeueFailed(context.Background(), domain.RequeueFailedParams{
		Kind:    domain.KindApproved,
		EventID: "e1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Requeued != 2 || len(got.IDs) != 2 {
		t.Errorf("expected 2 requeued, got %+v", got)
	}
	if repo.requeueParams.SinceHours != DefaultRequeueSinceHours {
		t.Errorf("expected default window %d, got %d", DefaultRequeueSinceHours, repo.requeueParams.SinceHours)
	}
	if repo.requeueParams.Limit != DefaultRequeueLimit {
		t.Errorf("expected default limit %d, got %d", DefaultRequeueLimit, repo.requeueParams.Limit)
	}
}

func TestQueueAdminService_RequeueFailed_Clamps(t *testing.T) {
	repo := &mockQueueRepository{}
	svc := NewQueueAdminService(repo)

	if _, err := svc.RequeueFailed(context.Background(), domain.RequeueFailedParams{
		SinceHours: 999999,
		Limit:      999999,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.requeueParams.SinceHours != MaxRequeueSinceHours {
		t.Errorf("expected window clamped to %d, got %d", MaxRequeueSinceHours, repo.requeueParams.SinceHours)
	}
	if repo.requeueParams.Limit != MaxRequeueLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxRequeueLimit, repo.requeueParams.Limit)
	}
}

func TestQueueAdminService_RequeueFailed_UnknownKind(t *testing.T) {
	svc := NewQueueAdminService(&mockQueueRepository{})
	if _, err := svc.RequeueFailed(context.Background(), domain.RequeueFailedParams{Kind: "mystery"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQueueAdminService_RequeueOne(t *testing.T) {
	repo := &mockQueueRepository{}
	svc := NewQueueAdminService(repo)

	if err := svc.RequeueOne(context.Background(), "q1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.requeueOneID != "q1" || !repo.requeueOneReset {
		t.Errorf("expected requeue of q1 with reset, got %q reset=%v", repo.requeueOneID, repo.requeueOneReset)
	}

	if err := svc.RequeueOne(context.Background(), "", false); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}

	repo.requeueOneErr = domain.ErrNotFound
	if err := svc.RequeueOne(context.Background(), "missing", false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
