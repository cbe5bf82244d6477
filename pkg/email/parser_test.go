package email

import (
	"strings"
	"testing"
)

func TestParseSimple(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"To: a@example.com, b@example.com\r\n" +
		"Subject: Free money\r\n" +
		"\r\n" +
		"Claim your prize now.\r\n"

	email, err := NewParser().Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if email.Subject != "Free money" {
		t.Errorf("Subject = %q", email.Subject)
	}
	if len(email.To) != 2 || email.To[1] != "b@example.com" {
		t.Errorf("To = %v", email.To)
	}
	if !strings.Contains(email.Body, "Claim your prize") {
		t.Errorf("Body = %q", email.Body)
	}
	if got := email.Text(); !strings.HasPrefix(got, "Free money\n") {
		t.Errorf("Text() = %q", got)
	}
}

func TestParseMultipart(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Subject: =?UTF-8?B?TWVldGluZyBub3Rlcw==?=\r\n" +
		"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Agenda attached.\r\n" +
		"--XYZ\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"agenda.pdf\"\r\n" +
		"\r\n" +
		"PDFDATA\r\n" +
		"--XYZ--\r\n"

	email, err := NewParser().ParseBytes([]byte(raw))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}

	if email.Subject != "Meeting notes" {
		t.Errorf("Subject = %q, want decoded subject", email.Subject)
	}
	if !strings.Contains(email.Body, "Agenda attached.") {
		t.Errorf("Body = %q", email.Body)
	}
	if strings.Contains(email.Body, "PDFDATA") {
		t.Errorf("Attachment leaked into body: %q", email.Body)
	}
	if len(email.Attachments) != 1 || email.Attachments[0].Filename != "agenda.pdf" {
		t.Errorf("Attachments = %+v", email.Attachments)
	}
}

func TestParseInvalid(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Content-Type: multipart/mixed\r\n" +
		"\r\n" +
		"body\r\n"

	if _, err := NewParser().ParseBytes([]byte(raw)); err == nil {
		t.Error("Expected error for multipart without boundary")
	}
}
