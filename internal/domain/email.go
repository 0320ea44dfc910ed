package domain

import "context"

// Mail dispatch error codes, stable for log/queue bookkeeping.
const (
	MailErrMissingCredential = "missing_credential"
	MailErrMissingSender     = "missing_sender"
	MailErrInvalidRecipient  = "invalid_recipient"
	MailErrTimeout           = "timeout"
	MailErrNetwork           = "network_error"
	MailErrProvider          = "provider_error"
)

// OutboundMail is one message to dispatch. From overrides the configured
// sender when set.
type OutboundMail struct {
	To      string
	Subject string
	Text    string
	From    string
}

// MailResult reports the outcome of a dispatch attempt. Send never panics or
// returns a Go error; failures are carried in ErrCode/ErrMessage.
type MailResult struct {
	OK                bool
	ProviderMessageID string
	ErrCode           string
	ErrMessage        string
}

// Mailer defines the contract for sending notification email
// (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, mail OutboundMail) MailResult
}
