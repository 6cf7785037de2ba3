package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/wneessen/go-mail"

	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
)

// sender is the part of *mail.Client the mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer delivers reports over SMTP with STARTTLS and AUTH PLAIN.
type Mailer struct {
	from   string
	client sender
	log    *logger.Logger
}

// NewMailer builds an SMTP client from the resolved credentials.
func NewMailer(creds types.Credentials, log *logger.Logger) (*Mailer, error) {
	client, err := mail.NewClient(creds.MailHost,
		mail.WithPort(creds.MailPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(creds.MailAddress),
		mail.WithPassword(creds.MailSecret),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: smtp client: %w", types.ErrConfiguration, err)
	}
	return newMailer(creds.MailAddress, client, log), nil
}

func newMailer(from string, client sender, log *logger.Logger) *Mailer {
	if log == nil {
		log = logger.Discard()
	}
	return &Mailer{from: from, client: client, log: log.Component("dispatch")}
}

// Deliver sends one message with the report attached. No retry.
func (m *Mailer) Deliver(ctx context.Context, recipient, artifactPath, originalFilename string) error {
	log := m.log.WithField("recipient", recipient).WithField("artifact", filepath.Base(artifactPath))

	msg, err := m.buildMessage(recipient, artifactPath, originalFilename)
	if err != nil {
		log.WithError(err).Error("could not build message")
		return fmt.Errorf("%w: %w", types.ErrDelivery, err)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		if isAuthFailure(err) {
			log.WithError(err).Error("smtp server rejected credentials")
			return fmt.Errorf("%w: %w", types.ErrAuthentication, err)
		}
		log.WithError(err).Error("smtp delivery failed")
		return fmt.Errorf("%w: %w", types.ErrDelivery, err)
	}

	log.Info("report delivered")
	return nil
}

func (m *Mailer) buildMessage(recipient, artifactPath, originalFilename string) (*mail.Msg, error) {
	if _, err := os.Stat(artifactPath); err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("from %q: %w", m.from, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("to %q: %w", recipient, err)
	}
	msg.Subject("Relatório de Análise - " + originalFilename)
	msg.SetBodyString(mail.TypeTextPlain, body(originalFilename))
	msg.AttachFile(artifactPath, mail.WithFileName(filepath.Base(artifactPath)))
	return msg, nil
}

func body(originalFilename string) string {
	return fmt.Sprintf(`Olá,

Segue em anexo o relatório de análise do áudio "%s".

O relatório contém a transcrição completa e os principais insights extraídos da conversa.

Atenciosamente,
Audio Insights
`, originalFilename)
}

// isAuthFailure separates rejected credentials from transport problems.
func isAuthFailure(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "smtp auth") || strings.Contains(msg, "authentication failed")
}
