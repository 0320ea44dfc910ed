package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"

	"gatherly/internal/domain"
)

// Defensive bounds applied before transmission.
const (
	sendTimeout       = 8 * time.Second
	maxSubjectLen     = 200
	maxBodyLen        = 10000
	maxProviderErrLen = 300
)

// recipientRegex is a minimal plausibility check, not full RFC validation.
var recipientRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Config holds configuration for creating a mailer.
type Config struct {
	Provider        string
	FromAddress     string
	FromName        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewMailer creates a mailer from config. Provider "ses" uses AWS SES;
// "noop" or unknown uses a no-op mailer that logs and reports success.
func NewMailer(cfg Config, logger *slog.Logger) domain.Mailer {
	switch cfg.Provider {
	case "ses":
		awsCfg := aws.Config{
			Region: cfg.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretAccessKey,
					"",
				),
			),
		}
		return &sesMailer{
			client: ses.NewFromConfig(awsCfg),
			cfg:    cfg,
			logger: logger,
		}
	case "noop":
		return &noopMailer{logger: logger}
	default:
		logger.Warn("unknown email provider, using noop", "provider", cfg.Provider)
		return &noopMailer{logger: logger}
	}
}

type sesMailer struct {
	client *ses.Client
	cfg    Config
	logger *slog.Logger
}

// Send dispatches one message. It never panics and never returns a Go
// error: every failure mode is reported through the result value so the
// worker can record it without special cases.
func (m *sesMailer) Send(ctx context.Context, mail domain.OutboundMail) domain.MailResult {
	if m.cfg.AccessKeyID == "" || m.cfg.SecretAccessKey == "" {
		return fail(domain.MailErrMissingCredential, "mail provider credential is not configured")
	}
	from := strings.TrimSpace(mail.From)
	if from == "" {
		from = strings.TrimSpace(m.cfg.FromAddress)
	}
	if from == "" {
		return fail(domain.MailErrMissingSender, "sender address is not configured")
	}
	to := strings.TrimSpace(mail.To)
	if !recipientRegex.MatchString(to) {
		return fail(domain.MailErrInvalidRecipient, fmt.Sprintf("recipient %q does not look like an email address", to))
	}

	source := from
	if m.cfg.FromName != "" && mail.From == "" {
		source = fmt.Sprintf("%s <%s>", m.cfg.FromName, from)
	}
	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(clip(mail.Subject, maxSubjectLen)),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(clip(mail.Text, maxBodyLen)),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return m.classify(err)
	}
	m.logger.Info("email sent via SES", "message_id", aws.ToString(result.MessageId))
	return domain.MailResult{OK: true, ProviderMessageID: aws.ToString(result.MessageId)}
}

// classify maps an SES call error to a stable result code: timeout,
// provider_error (with HTTP status prefix and a bounded message), or
// network_error for everything transport-level.
func (m *sesMailer) classify(err error) domain.MailResult {
	if errors.Is(err, context.DeadlineExceeded) {
		return fail(domain.MailErrTimeout, "mail provider call timed out")
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		msg := err.Error()
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			msg = apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
		}
		return fail(domain.MailErrProvider,
			fmt.Sprintf("%d: %s", respErr.HTTPStatusCode(), clip(msg, maxProviderErrLen)))
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fail(domain.MailErrProvider,
			clip(apiErr.ErrorCode()+": "+apiErr.ErrorMessage(), maxProviderErrLen))
	}
	return fail(domain.MailErrNetwork, clip(err.Error(), maxProviderErrLen))
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, mail domain.OutboundMail) domain.MailResult {
	n.logger.Info("email would be sent (noop)", "to", mail.To, "subject", mail.Subject)
	return domain.MailResult{OK: true, ProviderMessageID: "noop"}
}

func fail(code, message string) domain.MailResult {
	return domain.MailResult{OK: false, ErrCode: code, ErrMessage: message}
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
