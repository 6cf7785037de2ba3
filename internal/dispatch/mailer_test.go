package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wneessen/go-mail"

	"audio-insights-go/internal/types"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relatorio_alice_20261018_140509.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.3 fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDeliverBuildsMessageWithAttachment(t *testing.T) {
	s := &fakeSender{}
	m := newMailer("bot@x.com", s, nil)
	artifact := writeArtifact(t)

	if err := m.Deliver(context.Background(), "a@x.com", artifact, "call.mp3"); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(s.sent))
	}
	msg := s.sent[0]

	rcpts, err := msg.GetRecipients()
	if err != nil || len(rcpts) != 1 || rcpts[0] != "a@x.com" {
		t.Fatalf("recipients = %v (%v)", rcpts, err)
	}
	atts := msg.GetAttachments()
	if len(atts) != 1 || atts[0].Name != filepath.Base(artifact) {
		t.Fatalf("attachments = %+v", atts)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"multipart/mixed", "base64", filepath.Base(artifact), "text/plain"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestDeliverClassifiesAuthFailure(t *testing.T) {
	authErr := fmt.Errorf("dial failed: %w", &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"})
	m := newMailer("bot@x.com", &fakeSender{err: authErr}, nil)

	err := m.Deliver(context.Background(), "a@x.com", writeArtifact(t), "call.mp3")
	if !errors.Is(err, types.ErrAuthentication) {
		t.Fatalf("Deliver() error = %v, want ErrAuthentication", err)
	}
	if errors.Is(err, types.ErrDelivery) {
		t.Fatal("auth failure must not also be a delivery error")
	}
}

func TestDeliverClassifiesTransportFailure(t *testing.T) {
	m := newMailer("bot@x.com", &fakeSender{err: errors.New("dial tcp 1.2.3.4:587: connection refused")}, nil)

	err := m.Deliver(context.Background(), "a@x.com", writeArtifact(t), "call.mp3")
	if !errors.Is(err, types.ErrDelivery) {
		t.Fatalf("Deliver() error = %v, want ErrDelivery", err)
	}
}

func TestDeliverMissingArtifact(t *testing.T) {
	s := &fakeSender{}
	m := newMailer("bot@x.com", s, nil)

	err := m.Deliver(context.Background(), "a@x.com", filepath.Join(t.TempDir(), "gone.pdf"), "call.mp3")
	if !errors.Is(err, types.ErrDelivery) {
		t.Fatalf("Deliver() error = %v, want ErrDelivery", err)
	}
	if len(s.sent) != 0 {
		t.Fatal("nothing should be sent without an artifact")
	}
}

func TestDeliverBadRecipient(t *testing.T) {
	m := newMailer("bot@x.com", &fakeSender{}, nil)
	err := m.Deliver(context.Background(), "not an address", writeArtifact(t), "call.mp3")
	if !errors.Is(err, types.ErrDelivery) {
		t.Fatalf("Deliver() error = %v, want ErrDelivery", err)
	}
}

func TestIsAuthFailure(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&textproto.Error{Code: 534, Msg: "application-specific password required"}, true},
		{&textproto.Error{Code: 550, Msg: "mailbox unavailable"}, false},
		{errors.New("SMTP AUTH failed: bad credentials"), true},
		{errors.New("i/o timeout"), false},
	}
	for _, tc := range cases {
		if got := isAuthFailure(tc.err); got != tc.want {
			t.Fatalf("isAuthFailure(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestNewMailerRequiresHost(t *testing.T) {
	_, err := NewMailer(types.Credentials{MailAddress: "bot@x.com", MailSecret: "s", MailPort: 587}, nil)
	if !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("NewMailer() error = %v, want ErrConfiguration", err)
	}
	if _, err := NewMailer(types.Credentials{MailHost: "smtp.gmail.com", MailPort: 587, MailAddress: "bot@x.com", MailSecret: "s"}, nil); err != nil {
		t.Fatalf("NewMailer() error = %v", err)
	}
}
