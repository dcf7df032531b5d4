package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"mercator-hq/gateway/pkg/usage"
)

// Exporter writes usage records in a specific format.
type Exporter interface {
	Export(records []*usage.Record, w io.Writer) error
}

// ForFormat returns the exporter for "csv" or "json".
func ForFormat(format string) (Exporter, error) {
	switch format {
	case "csv":
		return NewCSVExporter(true), nil
	case "json", "":
		return NewJSONExporter(true), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use csv or json)", format)
	}
}

// CSVExporter writes one row per record.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

var csvHeader = []string{
	"id", "timestamp", "request_id", "client_id",
	"route", "model", "stream",
	"outcome", "error_kind", "status_code",
	"prompt_tokens", "completion_tokens", "tokens_used", "tokens_estimated", "chunks",
	"latency_ms",
}

// Export implements Exporter.
func (e *CSVExporter) Export(records []*usage.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.RequestID,
			r.ClientID,
			r.Route,
			r.Model,
			strconv.FormatBool(r.Stream),
			r.Outcome,
			r.ErrorKind,
			strconv.Itoa(r.StatusCode),
			strconv.Itoa(r.PromptTokens),
			strconv.Itoa(r.CompletionTokens),
			strconv.Itoa(r.TokensUsed),
			strconv.FormatBool(r.TokensEstimated),
			strconv.Itoa(r.Chunks),
			strconv.FormatInt(r.LatencyMS, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	return nil
}

// JSONExporter writes records as a JSON array.
type JSONExporter struct {
	// Pretty indents the output.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export implements Exporter. An empty set is written as [].
func (e *JSONExporter) Export(records []*usage.Record, w io.Writer) error {
	if records == nil {
		records = []*usage.Record{}
	}
	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("json export: %w", err)
	}
	return nil
}
