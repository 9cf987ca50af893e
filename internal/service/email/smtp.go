package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

// SMTPProvider implements the Provider interface using SMTP
// This is useful for development with Mailpit or other SMTP servers
type SMTPProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	useTLS    bool
}

// NewSMTPProvider creates a new SMTP provider
func NewSMTPProvider(host string, port int, username, password, fromEmail, fromName string, useTLS bool) *SMTPProvider {
	return &SMTPProvider{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
		useTLS:    useTLS,
	}
}

// Send sends an email using SMTP
func (p *SMTPProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	var message strings.Builder
	p.writeHeaders(&message, to, subject)
	message.WriteString(fmt.Sprintf("Content-Type: %s\r\n", contentType(isHTML)))
	message.WriteString("\r\n")
	message.WriteString(body)

	return p.deliver(to, message.String())
}

// SendWithAttachment sends a multipart/mixed message with a single attachment
func (p *SMTPProvider) SendWithAttachment(ctx context.Context, to, subject, body string, isHTML bool, file Attachment) error {
	var payload bytes.Buffer
	writer := multipart.NewWriter(&payload)

	bodyPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {contentType(isHTML)},
	})
	if err != nil {
		return fmt.Errorf("smtp body part error: %w", err)
	}
	if _, err := bodyPart.Write([]byte(body)); err != nil {
		return fmt.Errorf("smtp body part error: %w", err)
	}

	filePart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", file.ContentType, file.Filename)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", file.Filename)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return fmt.Errorf("smtp attachment part error: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(file.Data)
	for len(encoded) > 76 {
		filePart.Write([]byte(encoded[:76] + "\r\n"))
		encoded = encoded[76:]
	}
	filePart.Write([]byte(encoded))

	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp multipart error: %w", err)
	}

	var message strings.Builder
	p.writeHeaders(&message, to, subject)
	message.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary()))
	message.WriteString("\r\n")
	message.Write(payload.Bytes())

	return p.deliver(to, message.String())
}

func (p *SMTPProvider) writeHeaders(message *strings.Builder, to, subject string) {
	message.WriteString(fmt.Sprintf("From: %s\r\n", p.formatFrom()))
	message.WriteString(fmt.Sprintf("To: %s\r\n", to))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	message.WriteString("MIME-Version: 1.0\r\n")
}

func (p *SMTPProvider) deliver(to, message string) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	if p.useTLS {
		return p.sendTLS(addr, to, message)
	}

	return p.sendPlain(addr, to, message)
}

func contentType(isHTML bool) string {
	if isHTML {
		return "text/html; charset=UTF-8"
	}
	return "text/plain; charset=UTF-8"
}

// sendPlain sends email without TLS (for Mailpit and local development)
func (p *SMTPProvider) sendPlain(addr, to, message string) error {
	var auth smtp.Auth
	if p.username != "" && p.password != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	err := smtp.SendMail(addr, auth, p.fromEmail, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}

	return nil
}

// sendTLS sends email with TLS
func (p *SMTPProvider) sendTLS(addr, to, message string) error {
	// Connect to SMTP server
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: p.host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("tls dial error: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, p.host)
	if err != nil {
		return fmt.Errorf("smtp client error: %w", err)
	}
	defer client.Close()

	// Authenticate if credentials provided
	if p.username != "" && p.password != "" {
		auth := smtp.PlainAuth("", p.username, p.password, p.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth error: %w", err)
		}
	}

	// Set sender
	if err := client.Mail(p.fromEmail); err != nil {
		return fmt.Errorf("smtp mail error: %w", err)
	}

	// Set recipient
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt error: %w", err)
	}

	// Send message body
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data error: %w", err)
	}

	_, err = writer.Write([]byte(message))
	if err != nil {
		return fmt.Errorf("smtp write error: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("smtp close error: %w", err)
	}

	return client.Quit()
}

// formatFrom formats the from address with name
func (p *SMTPProvider) formatFrom() string {
	if p.fromName != "" {
		return fmt.Sprintf("%s <%s>", p.fromName, p.fromEmail)
	}
	return p.fromEmail
}
