package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// JoinController handles the join-request state machine and location unlock
// endpoints.
type JoinController struct {
	Logger    *slog.Logger
	Joins     domain.JoinRequestService
	Locations domain.LocationService
}

func NewJoinController(logger *slog.Logger, joins domain.JoinRequestService, locations domain.LocationService) *JoinController {
	return &JoinController{
		Logger:    logger,
		Joins:     joins,
		Locations: locations,
	}
}

// SubmitJoinRequestRequest is the request body for POST /join-requests.
type SubmitJoinRequestRequest struct {
	EventID string `json:"event_id"`
	Message string `json:"message"`
}

// Validate implements helpers.Validator.
func (r *SubmitJoinRequestRequest) Validate() []string {
	r.EventID = strings.TrimSpace(r.EventID)
	if r.EventID == "" {
		return []string{"event_id is required"}
	}
	return nil
}

// SubmitJoinRequestResponse is the success envelope for POST /join-requests.
type SubmitJoinRequestResponse struct {
	Success bool                `json:"success"`
	Request *domain.JoinRequest `json:"request"`
}

// SubmitJoinRequest godoc
// @Summary Submit a join request for an event
// @Description Creates a pending join request for the authenticated user. Fails if the event is in the past, the user already has a request of any status, or the user already attends.
// @Tags join-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.SubmitJoinRequestRequest true "Event id and optional message"
// @Success 201 {object} controllers.SubmitJoinRequestResponse
// @Failure 400 {object} helpers.ErrorResponse "error.code: bad_request | event_past | duplicate_request | already_attending"
// @Failure 401 {object} helpers.ErrorResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.ErrorResponse "error.code: not_found"
// @Failure 500 {object} helpers.ErrorResponse "error.code: internal_error"
// @Router /join-requests [post]
func (c *JoinController) SubmitJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitJoinRequestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	request, err := c.Joins.Submit(r.Context(), req.EventID, userID, req.Message)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, SubmitJoinRequestResponse{Success: true, Request: request})
}

// ApproveJoinRequestRequest is the request body for POST /join-requests/approve.
type ApproveJoinRequestRequest struct {
	RequestID string `json:"request_id"`
}

// Validate implements helpers.Validator.
func (r *ApproveJoinRequestRequest) Validate() []string {
	r.RequestID = strings.TrimSpace(r.RequestID)
	if r.RequestID == "" {
		return []string{"request_id is required"}
	}
	return nil
}

// ApproveJoinRequestResponse is the success envelope for POST /join-requests/approve.
type ApproveJoinRequestResponse struct {
	Success          bool                `json:"success"`
	Request          *domain.JoinRequest `json:"request"`
	NewAttendeeCount int                 `json:"new_attendee_count"`
	Capacity         int                 `json:"capacity"`
}

// ApproveJoinRequest godoc
// @Summary Approve a pending join request
// @Description Host-only. Atomically sets the request to approved and seats the requester; fails when the event is at capacity.
// @Tags join-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.ApproveJoinRequestRequest true "Request id"
// @Success 200 {object} controllers.ApproveJoinRequestResponse
// @Failure 400 {object} helpers.ErrorResponse "error.code: bad_request | request_not_pending | capacity_exceeded | already_attending"
// @Failure 401 {object} helpers.ErrorResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.ErrorResponse "error.code: forbidden"
// @Failure 404 {object} helpers.ErrorResponse "error.code: not_found"
// @Failure 500 {object} helpers.ErrorResponse "error.code: internal_error"
// @Router /join-requests/approve [post]
func (c *JoinController) ApproveJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req ApproveJoinRequestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	result, err := c.Joins.Approve(r.Context(), req.RequestID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, ApproveJoinRequestResponse{
		Success:          true,
		Request:          result.Request,
		NewAttendeeCount: result.NewAttendeeCount,
		Capacity:         result.Capacity,
	})
}

// RejectJoinRequestRequest is the request body for POST /join-requests/reject.
type RejectJoinRequestRequest struct {
	RequestID string `json:"request_id"`
	Note      string `json:"note"`
}

// Validate implements helpers.Validator.
func (r *RejectJoinRequestRequest) Validate() []string {
	r.RequestID = strings.TrimSpace(r.RequestID)
	if r.RequestID == "" {
		return []string{"request_id is required"}
	}
	return nil
}

// RejectJoinRequestResponse is the success envelope for POST /join-requests/reject.
type RejectJoinRequestResponse struct {
	Success bool                `json:"success"`
	Request *domain.JoinRequest `json:"request"`
}

// RejectJoinRequest godoc
// @Summary Reject a pending join request
// @Description Host-only. Sets the request to rejected and stores the optional note.
// @Tags join-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.RejectJoinRequestRequest true "Request id and optional note"
// @Success 200 {object} controllers.RejectJoinRequestResponse
// @Failure 400 {object} helpers.ErrorResponse "error.code: bad_request | request_not_pending"
// @Failure 401 {object} helpers.ErrorResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.ErrorResponse "error.code: forbidden"
// @Failure 404 {object} helpers.ErrorResponse "error.code: not_found"
// @Failure 500 {object} helpers.ErrorResponse "error.code: internal_error"
// @Router /join-requests/reject [post]
func (c *JoinController) RejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req RejectJoinRequestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	request, err := c.Joins.Reject(r.Context(), req.RequestID, userID, req.Note)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, RejectJoinRequestResponse{Success: true, Request: request})
}

// UnlockLocationRequest is the request body for POST /events/unlock-location.
type UnlockLocationRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements helpers.Validator.
func (r *UnlockLocationRequest) Validate() []string {
	r.EventID = strings.TrimSpace(r.EventID)
	if r.EventID == "" {
		return []string{"event_id is required"}
	}
	return nil
}

// UnlockLocationResponse is the success envelope for POST /events/unlock-location.
type UnlockLocationResponse struct {
	Success         bool `json:"success"`
	AlreadyUnlocked bool `json:"already_unlocked"`
}

// UnlockLocation godoc
// @Summary Reveal the exact event location
// @Description Host-only, idempotent: a second call succeeds with already_unlocked=true and no further mutation.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.UnlockLocationRequest true "Event id"
// @Success 200 {object} controllers.UnlockLocationResponse
// @Failure 400 {object} helpers.ErrorResponse "error.code: bad_request"
// @Failure 401 {object} helpers.ErrorResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.ErrorResponse "error.code: forbidden"
// @Failure 404 {object} helpers.ErrorResponse "error.code: not_found"
// @Failure 500 {object} helpers.ErrorResponse "error.code: internal_error"
// @Router /events/unlock-location [post]
func (c *JoinController) UnlockLocation(w http.ResponseWriter, r *http.Request) {
	var req UnlockLocationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	result, err := c.Locations.Unlock(r.Context(), req.EventID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, UnlockLocationResponse{
		Success:         true,
		AlreadyUnlocked: result.AlreadyUnlocked,
	})
}

// writeServiceError maps state machine errors to stable codes with
// contextual details for the client.
func (c *JoinController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var dupErr *domain.DuplicateRequestError
	var pendErr *domain.RequestNotPendingError
	var capErr *domain.CapacityExceededError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only the event host may perform this action")
	case errors.Is(err, domain.ErrEventPast):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeEventPast, "the event has already started")
	case errors.Is(err, domain.ErrAlreadyAttending):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeAlreadyAttending, "already attending this event")
	case errors.As(err, &dupErr):
		helpers.WriteJSONErrorDetails(w, http.StatusBadRequest, helpers.ErrCodeDuplicateRequest, dupErr.Error(),
			map[string]any{"existing_status": dupErr.ExistingStatus})
	case errors.As(err, &pendErr):
		helpers.WriteJSONErrorDetails(w, http.StatusBadRequest, helpers.ErrCodeRequestNotPending, pendErr.Error(),
			map[string]any{"current_status": pendErr.CurrentStatus})
	case errors.As(err, &capErr):
		helpers.WriteJSONErrorDetails(w, http.StatusBadRequest, helpers.ErrCodeCapacityExceeded, capErr.Error(),
			map[string]any{"capacity": capErr.Capacity, "current_attendees": capErr.CurrentAttendees})
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}
