package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherly/internal/delivery/http/controllers"
)

// Middleware wraps a handler func, e.g. auth or shared-secret checks.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// NewRouter initializes the HTTP router with all application routes.
// requireAuth guards the business-state endpoints; requireSecret guards
// enqueue, queue administration, and worker runs.
func NewRouter(join *controllers.JoinController, queue *controllers.QueueController, requireAuth, requireSecret Middleware) *http.ServeMux {
	mux := http.NewServeMux()

	// Join-request state machine
	mux.HandleFunc("POST /join-requests", requireAuth(join.SubmitJoinRequest))
	mux.HandleFunc("POST /join-requests/approve", requireAuth(join.ApproveJoinRequest))
	mux.HandleFunc("POST /join-requests/reject", requireAuth(join.RejectJoinRequest))
	mux.HandleFunc("POST /events/unlock-location", requireAuth(join.UnlockLocation))

	// Notification queue
	mux.HandleFunc("POST /notifications/enqueue", requireSecret(queue.EnqueueNotification))
	mux.HandleFunc("POST /notifications/admin", requireSecret(queue.AdminAction))
	mux.HandleFunc("POST /notifications/worker/run", requireSecret(queue.RunWorker))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
