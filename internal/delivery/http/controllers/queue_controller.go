package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/domain"
)

// Admin action names accepted by POST /notifications/admin.
const (
	AdminActionPeek          = "peek"
	AdminActionRequeueFailed = "requeue_failed"
	AdminActionRequeueOne    = "requeue_one"
)

// QueueController handles notification enqueue, queue administration, and
// on-demand worker runs. Authorization (shared-secret header) is applied by
// middleware before these handlers run.
type QueueController struct {
	Logger   *slog.Logger
	Enqueuer domain.NotificationEnqueuer
	Admin    domain.QueueAdminService
	Worker   domain.WorkerService
}

func NewQueueController(logger *slog.Logger, enqueuer domain.NotificationEnqueuer, admin domain.QueueAdminService, worker domain.WorkerService) *QueueController {
	return &QueueController{
		Logger:   logger,
		Enqueuer: enqueuer,
		Admin:    admin,
		Worker:   worker,
	}
}

// EnqueueRequest is the request body for POST /notifications/enqueue.
type EnqueueRequest struct {
	Kind          string         `json:"kind"`
	EventID       string         `json:"event_id"`
	JoinRequestID string         `json:"join_request_id"`
	RequesterID   string         `json:"requester_id"`
	UserID        string         `json:"user_id"`
	Payload       map[string]any `json:"payload"`
}

// Validate implements helpers.Validator.
func (r *EnqueueRequest) Validate() []string {
	var errs []string
	r.Kind = strings.TrimSpace(r.Kind)
	r.EventID = strings.TrimSpace(r.EventID)
	if r.Kind == "" {
		errs = append(errs, "kind is required")
	} else if !domain.NotificationKind(r.Kind).Valid() {
		errs = append(errs, "unknown kind")
	}
	if r.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	return errs
}

// EnqueueResponse is the success envelope for POST /notifications/enqueue.
type EnqueueResponse struct {
	OK   bool                           `json:"ok"`
	ID   string                         `json:"id"`
	Item *domain.NotificationQueueItem `json:"item,omitempty"`
}

// EnqueueNotification godoc
// @Summary Enqueue a notification job
// @Description Inserts one queued notification item. Requires the shared-secret header when one is configured.
// @Tags notifications
// @Accept json
// @Produce json
// @Param X-Admin-Secret header string false "Shared secret"
// @Param body body controllers.EnqueueRequest true "Kind, event id, optional refs and payload"
// @Success 201 {object} controllers.EnqueueResponse
// @Failure 400 {object} helpers.ErrorResponse "error.code: bad_request"
// @Failure 401 {object} helpers.ErrorResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.ErrorResponse "error.code: internal_error"
// @Router /notifications/enqueue [post]
func (c *QueueController) EnqueueNotification(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	item, err := c.Enqueuer.Enqueue(r.Context(), domain.EnqueueParams{
		Kind:          domain.NotificationKind(req.Kind),
		EventID:       req.EventID,
		JoinRequestID: req.JoinRequestID,
		RequesterID:   req.RequesterID,
		UserID:        req.UserID,
		Payload:       req.Payload,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "enqueue failed", "kind", req.Kind, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "insert failed")
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, EnqueueResponse{OK: true, ID: item.ID, Item: item})
}

// AdminRequest is the request body for POST /notifications/admin. Action
// selects the operation; the remaining fields apply per action.
type AdminRequest struct {
	Action        string `json:"action"`
	Limit         int    `json:"limit"`
	Kind          string `json:"kind"`
	EventID       string `json:"event_id"`
	SinceHours    int    `json:"since_hours"`
	QueueID       string `json:"queue_id"`
	ResetAttempts bool   `json:"reset_attempts"`
}

// Validate implements helpers.Validator.
func (r *AdminRequest) Validate() []string {
	r.Action = strings.TrimSpace(r.Action)
	if r.Action == "" {
		return []string{"action is required"}
	}
	switch r.Action {
	case AdminActionPeek, AdminActionRequeueFailed, AdminActionRequeueOne:
		return nil
	}
	return []string{"unknown action"}
}

// PeekResponse is the success envelope for the peek action.
type PeekResponse struct {
	OK      bool                            `json:"ok"`
	Summary *domain.QueueSummary            `json:"summary"`
	Recent  []*domain.NotificationQueueItem `json:"recent"`
}

// RequeueFailedResponse is the success envelope for the requeue_failed action.
type RequeueFailedResponse struct {
	OK       bool     `json:"ok"`
	Requeued int      `json:"requeued"`
	IDs      []string `json:"ids"`
}

// RequeueOneResponse is the success envelope for the requeue_one action.
type RequeueOneResponse struct {
	OK       bool   `json:"ok"`
	Requeued int    `json:"requeued"`
	ID       string `json:"id"`
}

// AdminAction godoc
// @Summary Inspect or recover the notification queue
// @Description Dispatches on action: peek (read-only counts + recent items), requeue_failed (failed items within a created_at window back to queued), requeue_one (single item).
// @Tags notifications
// @Accept json
// @Produce json
// @Param X-Admin-Secret header string false "Shared secret"
// @Param body body controllers.AdminRequest true "Action and per-action parameters"
// @Success 200 {object} controllers.PeekResponse
// @Failure 400 {object} helpers.ErrorResponse "error.code: bad_request | missing_id | not_found"
// @Failure 401 {object} helpers.ErrorResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.ErrorResponse "error.code: internal_error"
// @Router /notifications/admin [post]
func (c *QueueController) AdminAction(w http.ResponseWriter, r *http.Request) {
	var req AdminRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	switch req.Action {
	case AdminActionPeek:
		result, err := c.Admin.Peek(r.Context(), req.Limit)
		if err != nil {
			c.writeAdminError(w, r, err)
			return
		}
		helpers.WriteJSON(w, http.StatusOK, PeekResponse{OK: true, Summary: result.Summary, Recent: result.Recent})

	case AdminActionRequeueFailed:
		result, err := c.Admin.RequeueFailed(r.Context(), domain.RequeueFailedParams{
			Kind:          domain.NotificationKind(req.Kind),
			EventID:       req.EventID,
			SinceHours:    req.SinceHours,
			Limit:         req.Limit,
			ResetAttempts: req.ResetAttempts,
		})
		if err != nil {
			c.writeAdminError(w, r, err)
			return
		}
		helpers.WriteJSON(w, http.StatusOK, RequeueFailedResponse{OK: true, Requeued: result.Requeued, IDs: result.IDs})

	case AdminActionRequeueOne:
		if strings.TrimSpace(req.QueueID) == "" {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeMissingID, "queue_id is required")
			return
		}
		if err := c.Admin.RequeueOne(r.Context(), req.QueueID, req.ResetAttempts); err != nil {
			c.writeAdminError(w, r, err)
			return
		}
		helpers.WriteJSON(w, http.StatusOK, RequeueOneResponse{OK: true, Requeued: 1, ID: req.QueueID})
	}
}

// RunWorkerResponse is the success envelope for POST /notifications/worker/run.
type RunWorkerResponse struct {
	OK      bool `json:"ok"`
	Claimed int  `json:"claimed"`
	Sent    int  `json:"sent"`
	Failed  int  `json:"failed"`
}

// RunWorker godoc
// @Summary Process one batch of queued notifications
// @Description Claims a bounded batch, renders copy, dispatches mail, and records outcomes. Intended for a scheduler or manual trigger.
// @Tags notifications
// @Produce json
// @Param X-Admin-Secret header string false "Shared secret"
// @Success 200 {object} controllers.RunWorkerResponse
// @Failure 401 {object} helpers.ErrorResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.ErrorResponse "error.code: internal_error"
// @Router /notifications/worker/run [post]
func (c *QueueController) RunWorker(w http.ResponseWriter, r *http.Request) {
	report, err := c.Worker.ProcessBatch(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "worker batch failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "worker batch failed")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, RunWorkerResponse{
		OK:      true,
		Claimed: report.Claimed,
		Sent:    report.Sent,
		Failed:  report.Failed,
	})
}

func (c *QueueController) writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeNotFound, "queue item not found")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "admin action failed", "path", r.URL.Path, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}
