package types

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"strings"
	"time"
)

// Job is one submitted recording. It is never persisted.
type Job struct {
	SubmitterName  string `json:"submitter_name"`
	RecipientEmail string `json:"recipient_email"`
	Filename       string `json:"filename"`
	Audio          []byte `json:"-"`
}

// Ext returns the lowercased extension of the original filename, dot included.
func (j Job) Ext() string {
	return strings.ToLower(filepath.Ext(j.Filename))
}

// Validate rejects submissions the pipeline cannot run.
func (j Job) Validate() error {
	if strings.TrimSpace(j.SubmitterName) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidJob)
	}
	if _, err := mail.ParseAddress(j.RecipientEmail); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidJob, j.RecipientEmail)
	}
	if len(j.Audio) == 0 {
		return fmt.Errorf("%w: audio is empty", ErrInvalidJob)
	}
	if j.Ext() == "" {
		return fmt.Errorf("%w: filename %q has no extension", ErrInvalidJob, j.Filename)
	}
	return nil
}

// Credentials is resolved once at startup and handed to the components that need it.
type Credentials struct {
	SpeechKey   string
	MailAddress string
	MailSecret  string
	MailHost    string
	MailPort    int

	// SpreadsheetCredentials is a service-account JSON document. Empty disables the sheets sink.
	SpreadsheetCredentials []byte
	SheetID                string
}

// Missing lists the mandatory keys that are empty.
func (c Credentials) Missing() []string {
	var out []string
	if strings.TrimSpace(c.SpeechKey) == "" {
		out = append(out, "speech_key")
	}
	if strings.TrimSpace(c.MailAddress) == "" {
		out = append(out, "mail_address")
	}
	if strings.TrimSpace(c.MailSecret) == "" {
		out = append(out, "mail_secret")
	}
	return out
}

// SpreadsheetEnabled reports whether usage rows can go to the spreadsheet.
func (c Credentials) SpreadsheetEnabled() bool {
	return len(c.SpreadsheetCredentials) > 0 && strings.TrimSpace(c.SheetID) != ""
}

// UsageRecord is one audit row per completed run.
type UsageRecord struct {
	At             time.Time `json:"at"`
	SubmitterName  string    `json:"submitter_name"`
	RecipientEmail string    `json:"recipient_email"`
	SourceFilename string    `json:"source_filename"`
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Row renders the record as {date, time, name, email, filename}.
func (r UsageRecord) Row() []string {
	return []string{
		r.At.Format(DateLayout),
		r.At.Format(TimeLayout),
		r.SubmitterName,
		r.RecipientEmail,
		r.SourceFilename,
	}
}
