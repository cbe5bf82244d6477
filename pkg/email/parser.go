package email

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// Email is the part of a parsed message the classifier cares about
type Email struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Headers     map[string]string
	Attachments []Attachment
}

// Attachment represents an email attachment
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}

// Text returns the classifiable text of the message: subject, a newline, then
// every text body part.
func (e *Email) Text() string {
	if e.Subject == "" {
		return e.Body
	}
	return e.Subject + "\n" + e.Body
}

// Parser handles fast email parsing
type Parser struct {
	words mime.WordDecoder
}

// NewParser creates a new email parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseBytes parses a raw RFC 5322 message
func (p *Parser) ParseBytes(raw []byte) (*Email, error) {
	return p.Parse(bytes.NewReader(raw))
}

// Parse parses an email from a reader
func (p *Parser) Parse(reader io.Reader) (*Email, error) {
	msg, err := mail.ReadMessage(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	email := &Email{
		Headers: make(map[string]string),
		From:    msg.Header.Get("From"),
		Subject: p.decodeHeader(msg.Header.Get("Subject")),
	}

	if to := msg.Header.Get("To"); to != "" {
		email.To = strings.Split(to, ",")
		for i := range email.To {
			email.To[i] = strings.TrimSpace(email.To[i])
		}
	}

	for key, values := range msg.Header {
		email.Headers[key] = strings.Join(values, "; ")
	}

	if err := p.parseBody(msg.Header.Get("Content-Type"), msg.Body, email); err != nil {
		return nil, fmt.Errorf("failed to parse body: %w", err)
	}

	return email, nil
}

// decodeHeader expands RFC 2047 encoded words, keeping the raw value when
// the charset is unknown
func (p *Parser) decodeHeader(value string) string {
	decoded, err := p.words.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

func (p *Parser) parseBody(contentType string, body io.Reader, email *Email) error {
	if contentType == "" {
		return readText(body, email)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return readText(body, email)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return p.parseMultipart(body, params["boundary"], email)
	}
	return readText(body, email)
}

func readText(body io.Reader, email *Email) error {
	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	appendBody(email, string(content))
	return nil
}

func appendBody(email *Email, content string) {
	if email.Body == "" {
		email.Body = content
	} else {
		email.Body += "\n" + content
	}
}

// parseMultipart walks the parts, descending into nested multiparts
func (p *Parser) parseMultipart(body io.Reader, boundary string, email *Email) error {
	if boundary == "" {
		return fmt.Errorf("multipart message without boundary")
	}

	multipartReader := multipart.NewReader(body, boundary)
	for {
		part, err := multipartReader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		contentType := part.Header.Get("Content-Type")
		disposition := part.Header.Get("Content-Disposition")

		switch {
		case strings.Contains(disposition, "attachment"):
			attachment := Attachment{
				Filename:    part.FileName(),
				ContentType: contentType,
			}
			if n, err := io.Copy(io.Discard, part); err == nil {
				attachment.Size = n
			}
			email.Attachments = append(email.Attachments, attachment)

		case strings.HasPrefix(contentType, "multipart/"):
			_, params, err := mime.ParseMediaType(contentType)
			if err == nil {
				if err := p.parseMultipart(part, params["boundary"], email); err != nil {
					part.Close()
					return err
				}
			}

		case contentType == "" || strings.HasPrefix(contentType, "text/"):
			content, err := io.ReadAll(part)
			if err == nil {
				appendBody(email, string(content))
			}
		}

		part.Close()
	}

	return nil
}
