package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// fixedColumns is the header for Row, in exact field-declaration order,
// matching spec section 6. Declared by hand rather than derived by
// reflection so WriteHeader can run independently of the first row.
var fixedColumns = []string{
	"src_ip", "dst_ip", "src_port", "dst_port", "protocol",
	"dns_amplification_factor", "query_response_ratio", "dns_any_query_ratio",
	"dns_txt_query_ratio", "dns_server_fanout", "dns_response_inconsistency",
	"ttl_violation_rate", "dns_queries_per_second", "dns_mean_answers_per_query",
	"port_53_traffic_ratio",
	"flow_bytes_per_sec", "flow_packets_per_sec", "fwd_packets_per_sec", "bwd_packets_per_sec",
	"flow_duration", "total_fwd_packets", "total_bwd_packets", "total_fwd_bytes", "total_bwd_bytes",
	"dns_total_queries", "dns_total_responses", "dns_response_bytes",
	"flow_iat_mean", "flow_iat_std", "flow_iat_min", "flow_iat_max", "fwd_iat_mean", "bwd_iat_mean",
	"fwd_packet_length_mean", "bwd_packet_length_mean", "packet_size_std", "flow_length_min", "flow_length_max",
	"response_time_variance", "average_packet_size",
	"dns_query_burst_score",
}

// CSVSink is the primary output sink: a plain CSV file, written via
// gocarina/gocsv. Header is written once; rows are appended one at a
// time as flows are exported, so the flow manager never has to buffer
// more than one row in memory.
type CSVSink struct {
	file     *os.File
	writer   *gocsv.SafeCSVWriter
	hasLabel bool
	headerOK bool
}

// NewCSVSink opens (or creates/truncates) path for the run's primary
// output file.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening csv sink %q: %v", ErrSinkInit, path, err)
	}
	return &CSVSink{
		file:   f,
		writer: gocsv.NewSafeCSVWriter(csv.NewWriter(f)),
	}, nil
}

// WriteHeader implements Sink.
func (s *CSVSink) WriteHeader(hasLabel bool) error {
	s.hasLabel = hasLabel
	cols := fixedColumns
	if hasLabel {
		cols = append(append([]string{}, fixedColumns...), "label")
	}
	if err := s.writer.Write(cols); err != nil {
		return err
	}
	s.headerOK = true
	return s.writer.Flush()
}

// WriteRow implements Sink.
func (s *CSVSink) WriteRow(row Row, label string) error {
	if !s.headerOK {
		if err := s.WriteHeader(label != ""); err != nil {
			return err
		}
	}
	if s.hasLabel {
		return gocsv.MarshalCSVWithoutHeaders([]LabeledRow{{Row: row, Label: label}}, s.writer)
	}
	return gocsv.MarshalCSVWithoutHeaders([]Row{row}, s.writer)
}

// Flush implements Sink. Idempotent: flushing an already-closed file is
// a no-op.
func (s *CSVSink) Flush() error {
	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := s.file.Close()
	s.file = nil
	return err
}
