package usage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"audio-insights-go/internal/types"
)

const defaultSheetsRetry = 8 * time.Second

type rowAppender interface {
	AppendRow(ctx context.Context, spreadsheetID, rng string, row []interface{}) error
}

type sheetsAPI struct {
	svc *sheets.Service
}

func (a *sheetsAPI) AppendRow(ctx context.Context, spreadsheetID, rng string, row []interface{}) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := a.svc.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// SheetsSink appends rows to a Google spreadsheet with a service account.
type SheetsSink struct {
	appender   rowAppender
	sheetID    string
	rng        string
	maxElapsed time.Duration
	initErr    error
}

// NewSheetsSink returns a sink that reports ErrSinkNotConfigured when creds carry no spreadsheet.
func NewSheetsSink(ctx context.Context, creds types.Credentials, rng string) *SheetsSink {
	s := &SheetsSink{sheetID: creds.SheetID, rng: rng, maxElapsed: defaultSheetsRetry}
	if !creds.SpreadsheetEnabled() {
		s.initErr = ErrSinkNotConfigured
		return s
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(creds.SpreadsheetCredentials),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		s.initErr = fmt.Errorf("sheets client: %w", err)
		return s
	}
	s.appender = &sheetsAPI{svc: svc}
	return s
}

func (s *SheetsSink) Name() string { return "sheets" }

// Append retries only failures where the row cannot have been written (rate limit,
// dial error). values.append is not idempotent, so anything else is returned at once.
func (s *SheetsSink) Append(ctx context.Context, rec types.UsageRecord) error {
	if s.initErr != nil {
		return s.initErr
	}
	row := make([]interface{}, 0, 5)
	for _, v := range rec.Row() {
		row = append(row, v)
	}

	op := func() error {
		err := s.appender.AppendRow(ctx, s.sheetID, s.rng, row)
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = s.maxElapsed
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func isRetryable(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusTooManyRequests
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
