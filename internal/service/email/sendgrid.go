package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridCategory = "meeting-confirmation"

// SendGridProvider delivers mail through the SendGrid v3 API
type SendGridProvider struct {
	from   *mail.Email
	client *sendgrid.Client
}

func NewSendGridProvider(apiKey, fromEmail, fromName string) *SendGridProvider {
	return &SendGridProvider{
		from:   mail.NewEmail(fromName, fromEmail),
		client: sendgrid.NewSendClient(apiKey),
	}
}

func (p *SendGridProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	return p.deliver(ctx, p.message(to, subject, body, isHTML))
}

// SendWithAttachment sends the message with file attached, base64 encoded as the API expects
func (p *SendGridProvider) SendWithAttachment(ctx context.Context, to, subject, body string, isHTML bool, file Attachment) error {
	message := p.message(to, subject, body, isHTML)

	attachment := mail.NewAttachment()
	attachment.SetContent(base64.StdEncoding.EncodeToString(file.Data))
	attachment.SetType(file.ContentType)
	attachment.SetFilename(file.Filename)
	attachment.SetDisposition("attachment")
	message.AddAttachment(attachment)

	return p.deliver(ctx, message)
}

func (p *SendGridProvider) message(to, subject, body string, isHTML bool) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(p.from)
	message.Subject = subject
	message.AddCategories(sendGridCategory)

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", to))
	message.AddPersonalizations(personalization)

	contentType := "text/plain"
	if isHTML {
		contentType = "text/html"
	}
	message.AddContent(mail.NewContent(contentType, body))
	return message
}

func (p *SendGridProvider) deliver(ctx context.Context, message *mail.SGMailV3) error {
	response, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
