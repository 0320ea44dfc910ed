package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockJoinService struct {
	request   *domain.JoinRequest
	approval  *domain.ApprovalResult
	submitErr error
	actionErr error
}

func (m *mockJoinService) Submit(ctx context.Context, eventID, requesterUserID, message string) (*domain.JoinRequest, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.request, nil
}

func (m *mockJoinService) Approve(ctx context.Context, requestID, actingUserID string) (*domain.ApprovalResult, error) {
	if m.actionErr != nil {
		return nil, m.actionErr
	}
	return m.approval, nil
}

func (m *mockJoinService) Reject(ctx context.Context, requestID, actingUserID, note string) (*domain.JoinRequest, error) {
	if m.actionErr != nil {
		return nil, m.actionErr
	}
	return m.request, nil
}

type mockLocationService struct {
	result *domain.UnlockResult
	err    error
}

func (m *mockLocationService) Unlock(ctx context.Context, eventID, actingUserID string) (*domain.UnlockResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func authedRequest(t *testing.T, path, body, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *helpers.APIError {
	t.Helper()
	var resp helpers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected success=false, got body %s", w.Body.String())
	}
	if resp.Error == nil {
		t.Fatal("expected error object")
	}
	return resp.Error
}

func TestJoinController_SubmitJoinRequest_Success(t *testing.T) {
	svc := &mockJoinService{request: &domain.JoinRequest{ID: "jr1", EventID: "e1", Status: domain.JoinRequestPending}}
	ctrl := NewJoinController(testLogger(), svc, &mockLocationService{})

	w := httptest.NewRecorder()
	ctrl.SubmitJoinRequest(w, authedRequest(t, "/join-requests", `{"event_id":"e1","message":"hi"}`, "u1"))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var resp SubmitJoinRequestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if !resp.Success || resp.Request.ID != "jr1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestJoinController_SubmitJoinRequest_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		userID     string
		submitErr  error
		wantStatus int
		wantCode   string
	}{
		{"missing event_id", `{"message":"hi"}`, "u1", nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"malformed json", `{`, "u1", nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"unknown field rejected", `{"event_id":"e1","surprise":1}`, "u1", nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"no auth context", `{"event_id":"e1"}`, "", nil, http.StatusUnauthorized, helpers.ErrCodeUnauthorized},
		{"event not found", `{"event_id":"e1"}`, "u1", domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
		{"event past", `{"event_id":"e1"}`, "u1", domain.ErrEventPast, http.StatusBadRequest, helpers.ErrCodeEventPast},
		{"already attending", `{"event_id":"e1"}`, "u1", domain.ErrAlreadyAttending, http.StatusBadRequest, helpers.ErrCodeAlreadyAttending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockJoinService{submitErr: tt.submitErr}
			ctrl := NewJoinController(testLogger(), svc, &mockLocationService{})

			w := httptest.NewRecorder()
			ctrl.SubmitJoinRequest(w, authedRequest(t, "/join-requests", tt.body, tt.userID))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if got := decodeError(t, w); got.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, got.Code)
			}
		})
	}
}

func TestJoinController_SubmitJoinRequest_DuplicateDetails(t *testing.T) {
	svc := &mockJoinService{submitErr: &domain.DuplicateRequestError{ExistingStatus: domain.JoinRequestRejected}}
	ctrl := NewJoinController(testLogger(), svc, &mockLocationService{})

	w := httptest.NewRecorder()
	ctrl.SubmitJoinRequest(w, authedRequest(t, "/join-requests", `{"event_id":"e1"}`, "u1"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	got := decodeError(t, w)
	if got.Code != helpers.ErrCodeDuplicateRequest {
		t.Fatalf("expected duplicate_request, got %q", got.Code)
	}
	if got.Details["existing_status"] != "rejected" {
		t.Errorf("expected existing_status detail, got %v", got.Details)
	}
}

func TestJoinController_ApproveJoinRequest(t *testing.T) {
	t.Run("success includes seat count", func(t *testing.T) {
		svc := &mockJoinService{approval: &domain.ApprovalResult{
			Request:          &domain.JoinRequest{ID: "jr1", Status: domain.JoinRequestApproved},
			NewAttendeeCount: 3,
			Capacity:         4,
		}}
		ctrl := NewJoinController(testLogger(), svc, &mockLocationService{})

		w := httptest.NewRecorder()
		ctrl.ApproveJoinRequest(w, authedRequest(t, "/join-requests/approve", `{"request_id":"jr1"}`, "host-1"))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp ApproveJoinRequestResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if !resp.Success || resp.NewAttendeeCount != 3 || resp.Capacity != 4 {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("capacity exceeded carries details", func(t *testing.T) {
		svc := &mockJoinService{actionErr: &domain.CapacityExceededError{Capacity: 4, CurrentAttendees: 4}}
		ctrl := NewJoinController(testLogger(), svc, &mockLocationService{})

		w := httptest.NewRecorder()
		ctrl.ApproveJoinRequest(w, authedRequest(t, "/join-requests/approve", `{"request_id":"jr1"}`, "host-1"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		got := decodeError(t, w)
		if got.Code != helpers.ErrCodeCapacityExceeded {
			t.Fatalf("expected capacity_exceeded, got %q", got.Code)
		}
		if got.Details["capacity"] != float64(4) || got.Details["current_attendees"] != float64(4) {
			t.Errorf("expected capacity details, got %v", got.Details)
		}
	})

	t.Run("forbidden for non-host", func(t *testing.T) {
		svc := &mockJoinService{actionErr: domain.ErrForbidden}
		ctrl := NewJoinController(testLogger(), svc, &mockLocationService{})

		w := httptest.NewRecorder()
		ctrl.ApproveJoinRequest(w, authedRequest(t, "/join-requests/approve", `{"request_id":"jr1"}`, "guest"))

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("not pending carries current status", func(t *testing.T) {
		svc := &mockJoinService{actionErr: &domain.RequestNotPendingError{CurrentStatus: domain.JoinRequestApproved}}
		ctrl := NewJoinController(testLogger(), svc, &mockLocationService{})

		w := httptest.NewRecorder()
		ctrl.ApproveJoinRequest(w, authedRequest(t, "/join-requests/approve", `{"request_id":"jr1"}`, "host-1"))

		got := decodeError(t, w)
		if got.Code != helpers.ErrCodeRequestNotPending {
			t.Fatalf("expected request_not_pending, got %q", got.Code)
		}
		if got.Details["current_status"] != "approved" {
			t.Errorf("expected current_status detail, got %v", got.Details)
		}
	})
}

func TestJoinController_RejectJoinRequest_Success(t *testing.T) {
	svc := &mockJoinService{request: &domain.JoinRequest{ID: "jr1", Status: domain.JoinRequestRejected, RejectionNote: "sorry"}}
	ctrl := NewJoinController(testLogger(), svc, &mockLocationService{})

	w := httptest.NewRecorder()
	ctrl.RejectJoinRequest(w, authedRequest(t, "/join-requests/reject", `{"request_id":"jr1","note":"sorry"}`, "host-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp RejectJoinRequestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if !resp.Success || resp.Request.RejectionNote != "sorry" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestJoinController_UnlockLocation(t *testing.T) {
	t.Run("fresh unlock", func(t *testing.T) {
		loc := &mockLocationService{result: &domain.UnlockResult{AlreadyUnlocked: false}}
		ctrl := NewJoinController(testLogger(), &mockJoinService{}, loc)

		w := httptest.NewRecorder()
		ctrl.UnlockLocation(w, authedRequest(t, "/events/unlock-location", `{"event_id":"e1"}`, "host-1"))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp UnlockLocationResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if !resp.Success || resp.AlreadyUnlocked {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("repeat unlock reports already_unlocked", func(t *testing.T) {
		loc := &mockLocationService{result: &domain.UnlockResult{AlreadyUnlocked: true}}
		ctrl := NewJoinController(testLogger(), &mockJoinService{}, loc)

		w := httptest.NewRecorder()
		ctrl.UnlockLocation(w, authedRequest(t, "/events/unlock-location", `{"event_id":"e1"}`, "host-1"))

		var resp UnlockLocationResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if !resp.AlreadyUnlocked {
			t.Errorf("expected already_unlocked=true, got %+v", resp)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		loc := &mockLocationService{err: domain.ErrForbidden}
		ctrl := NewJoinController(testLogger(), &mockJoinService{}, loc)

		w := httptest.NewRecorder()
		ctrl.UnlockLocation(w, authedRequest(t, "/events/unlock-location", `{"event_id":"e1"}`, "guest"))

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})
}
