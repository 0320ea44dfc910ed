package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gatherly/internal/domain"
)

// textGenTimeout bounds the copy-generation call; on expiry the template
// fallback is used.
const textGenTimeout = 10 * time.Second

// maxNoticeTextLen is the hard cap applied to generated copy.
const maxNoticeTextLen = 360

var noticeSubjects = map[domain.NotificationKind]string{
	domain.KindRequestCreated:   "New join request for your event",
	domain.KindApproved:         "Your join request was approved",
	domain.KindRejected:         "Update on your join request",
	domain.KindLocationUnlocked: "Exact location revealed",
}

type noticeService struct {
	textgen domain.TextGenerator
}

// NewNoticeService returns a NoticeGenerator. The text generator is
// optional; when nil every notice uses the deterministic template copy.
func NewNoticeService(textgen domain.TextGenerator) domain.NoticeGenerator {
	return &noticeService{textgen: textgen}
}

// GenerateNotice renders subject and body for the given lifecycle signal.
// It never fails: any text-generation error degrades to the template text
// with AIUsed=false and the diagnostic carried in Err.
func (s *noticeService) GenerateNotice(ctx context.Context, kind domain.NotificationKind, nctx domain.NoticeContext) domain.Notice {
	n := domain.Notice{Subject: noticeSubjects[kind]}
	if n.Subject == "" {
		n.Subject = "Event update"
	}

	if s.textgen == nil {
		n.Text = fallbackText(kind, nctx)
		return n
	}

	ctx, cancel := context.WithTimeout(ctx, textGenTimeout)
	defer cancel()
	text, err := s.textgen.Generate(ctx, buildPrompt(kind, nctx))
	if err != nil {
		n.Text = fallbackText(kind, nctx)
		n.Err = err.Error()
		return n
	}
	text = strings.TrimSpace(text)
	if text == "" {
		n.Text = fallbackText(kind, nctx)
		n.Err = "text generator returned empty text"
		return n
	}

	n.Text = truncateRunes(text, maxNoticeTextLen)
	n.AIUsed = true
	return n
}

func buildPrompt(kind domain.NotificationKind, nctx domain.NoticeContext) string {
	var b strings.Builder
	b.WriteString("Write a short, friendly notification (max two sentences, plain text) for a social events app.\n")
	switch kind {
	case domain.KindRequestCreated:
		b.WriteString("Situation: someone asked to join the host's event; the host should review the request.\n")
	case domain.KindApproved:
		b.WriteString("Situation: the host approved the recipient's request to join the event.\n")
	case domain.KindRejected:
		b.WriteString("Situation: the host declined the recipient's request to join the event. Be kind.\n")
	case domain.KindLocationUnlocked:
		b.WriteString("Situation: the host revealed the exact location of the event to confirmed attendees.\n")
	}
	fmt.Fprintf(&b, "Event title: %s\n", nctx.EventTitle)
	if nctx.EventDateTime != "" {
		fmt.Fprintf(&b, "Event date/time: %s\n", nctx.EventDateTime)
	}
	if nctx.HostName != "" {
		fmt.Fprintf(&b, "Host name: %s\n", nctx.HostName)
	}
	if nctx.HostNote != "" {
		fmt.Fprintf(&b, "Note from the host: %s\n", nctx.HostNote)
	}
	return b.String()
}

// fallbackText is the deterministic template copy used whenever the text
// generator is unavailable or fails.
func fallbackText(kind domain.NotificationKind, nctx domain.NoticeContext) string {
	title := nctx.EventTitle
	if title == "" {
		title = "your event"
	}
	when := ""
	if nctx.EventDateTime != "" {
		when = " on " + nctx.EventDateTime
	}

	switch kind {
	case domain.KindRequestCreated:
		return fmt.Sprintf("Someone asked to join %s%s; open the event page to review the request.", title, when)
	case domain.KindApproved:
		s := fmt.Sprintf("Your request to join %s%s was approved", title, when)
		if nctx.HostName != "" {
			s += " by " + nctx.HostName
		}
		s += "."
		if nctx.HostNote != "" {
			s += " Note from the host: " + nctx.HostNote
		}
		return s
	case domain.KindRejected:
		s := fmt.Sprintf("Your request to join %s%s was not accepted this time.", title, when)
		if nctx.HostNote != "" {
			s += " Note from the host: " + nctx.HostNote
		}
		return s
	case domain.KindLocationUnlocked:
		return fmt.Sprintf("The exact location for %s%s is now visible to you.", title, when)
	}
	return fmt.Sprintf("There is an update for %s%s.", title, when)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
