package sink

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// sheetsScope is the minimal OAuth2 scope needed to append rows to a
// single spreadsheet.
const sheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// sheetsBatchSize is the buffered write batch size mandated by spec
// section 6's remote-sink contract.
const sheetsBatchSize = 100

// SheetsSink is the optional remote sink: a service-account-authenticated
// Google Sheets append target, constructed only when both -g (credential
// file) and -s (spreadsheet ID) are supplied. Rows are buffered and
// flushed in batches of sheetsBatchSize.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	hasLabel      bool
	headerWritten bool
	flushed       bool
	batchSize     int

	buf [][]any
}

// NewSheetsSink authenticates with the service-account credential file
// at credsPath and targets spreadsheetID. A failure here is sink-fatal
// (spec section 7, taxonomy item 5): the caller should disable the sink
// and continue on the CSV sink alone.
func NewSheetsSink(ctx context.Context, credsPath, spreadsheetID string) (*SheetsSink, error) {
	raw, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheets credentials %q: %v", ErrSinkInit, credsPath, err)
	}
	jwtConf, err := google.JWTConfigFromJSON(raw, sheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing sheets service-account JSON: %v", ErrSinkInit, err)
	}
	client := jwtConf.Client(ctx)

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%w: constructing sheets client for spreadsheet %q (service account %s): %v",
			ErrSinkInit, spreadsheetID, jwtConf.Email, err)
	}

	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID, batchSize: sheetsBatchSize}, nil
}

// SetBatchSize overrides the buffered-write batch size, driven by
// internal/config's sink.sheets_batch_size. n <= 0 is ignored and
// leaves the spec-default batch size of 100 in place.
func (s *SheetsSink) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// URL returns the spreadsheet's web URL, the "URL accessor" spec
// section 6 requires of the remote-sink contract.
func (s *SheetsSink) URL() string {
	return "https://docs.google.com/spreadsheets/d/" + s.spreadsheetID
}

// WriteHeader implements Sink.
func (s *SheetsSink) WriteHeader(hasLabel bool) error {
	s.hasLabel = hasLabel
	cols := make([]any, 0, len(fixedColumns)+1)
	for _, c := range fixedColumns {
		cols = append(cols, c)
	}
	if hasLabel {
		cols = append(cols, "label")
	}
	s.buf = append(s.buf, cols)
	s.headerWritten = true
	return s.maybeFlushBatch()
}

// WriteRow implements Sink.
func (s *SheetsSink) WriteRow(row Row, label string) error {
	if !s.headerWritten {
		if err := s.WriteHeader(label != ""); err != nil {
			return err
		}
	}
	values := rowValues(row)
	if s.hasLabel {
		values = append(values, label)
	}
	s.buf = append(s.buf, values)
	return s.maybeFlushBatch()
}

func (s *SheetsSink) maybeFlushBatch() error {
	if len(s.buf) < s.batchSize {
		return nil
	}
	return s.sendBatch()
}

// Flush implements Sink. Idempotent via the flushed guard, matching the
// teacher's dumped-flag idempotence pattern generalized to a sink.
func (s *SheetsSink) Flush() error {
	if s.flushed {
		return nil
	}
	s.flushed = true
	if len(s.buf) == 0 {
		return nil
	}
	return s.sendBatch()
}

func (s *SheetsSink) sendBatch() error {
	if len(s.buf) == 0 {
		return nil
	}
	valueRange := &sheets.ValueRange{Values: s.buf}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, "A1", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Do()
	s.buf = nil
	if err != nil {
		return fmt.Errorf("sheets batch append to %s: %w", s.URL(), err)
	}
	return nil
}

// rowValues flattens Row's fixed columns into the order fixedColumns
// declares, for transport as a Sheets API value range.
func rowValues(row Row) []any {
	return []any{
		row.SrcIP, row.DstIP, strconv.Itoa(int(row.SrcPort)), strconv.Itoa(int(row.DstPort)), row.Protocol,
		row.DNSAmplificationFactor, row.QueryResponseRatio, row.DNSAnyQueryRatio,
		row.DNSTxtQueryRatio, row.DNSServerFanout, row.DNSResponseInconsistency,
		row.TTLViolationRate, row.DNSQueriesPerSecond, row.DNSMeanAnswersPerQuery,
		row.Port53TrafficRatio,
		row.FlowBytesPerSec, row.FlowPacketsPerSec, row.FwdPacketsPerSec, row.BwdPacketsPerSec,
		row.FlowDuration, row.TotalFwdPackets, row.TotalBwdPackets, row.TotalFwdBytes, row.TotalBwdBytes,
		row.DNSTotalQueries, row.DNSTotalResponses, row.DNSResponseBytes,
		row.FlowIATMean, row.FlowIATStd, row.FlowIATMin, row.FlowIATMax, row.FwdIATMean, row.BwdIATMean,
		row.FwdPacketLengthMean, row.BwdPacketLengthMean, row.PacketSizeStd, row.FlowLengthMin, row.FlowLengthMax,
		row.ResponseTimeVariance, row.AveragePacketSize,
		row.DNSQueryBurstScore,
	}
}
