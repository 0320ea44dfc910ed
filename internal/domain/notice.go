package domain

import "context"

// NoticeContext carries the event context interpolated into notice copy.
type NoticeContext struct {
	EventTitle    string
	EventDateTime string
	HostName      string
	HostNote      string
}

// Notice is the rendered subject and body for one notification. Err carries
// an optional diagnostic when the text-generation service failed and the
// deterministic template was used instead; it is for logging only.
type Notice struct {
	Subject string
	Text    string
	AIUsed  bool
	Err     string
}

// NoticeGenerator renders notification copy for a lifecycle signal. It never
// fails: any text-generation outage degrades to template copy.
type NoticeGenerator interface {
	GenerateNotice(ctx context.Context, kind NotificationKind, nctx NoticeContext) Notice
}

// TextGenerator is the port to the external text-generation service.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
