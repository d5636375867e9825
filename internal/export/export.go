// Package export renders a diagnostics report to JSON, CSV, plain text
// or PDF, and writes timestamped report files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ducminh1220/netscope/internal/probe"
)

// Format names a supported output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a format name from a CLI flag.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatText, "txt":
		return FormatText, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown export format %q (json, csv, text, pdf)", name)
}

func (f Format) ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Write encodes the report in the given format.
func Write(w io.Writer, report *probe.Report, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatCSV:
		return writeCSV(w, report)
	case FormatText:
		return writeText(w, report)
	case FormatPDF:
		return writePDF(w, report)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// WriteFile writes the report to dir as <prefix>_<timestamp>.<ext> and
// returns the file path.
func WriteFile(report *probe.Report, format Format, dir, prefix string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if prefix == "" {
		prefix = "netscope_report"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), format.ext())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := Write(f, report, format); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func writeJSON(w io.Writer, report *probe.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// reportMap round-trips the report through JSON so the CSV and text
// renderers walk exactly what the JSON export contains.
func reportMap(report *probe.Report) (map[string]any, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// flatten collapses nested maps and slices into dotted-underscore keys:
// results.ping.avg_ms stays readable as results_ping_avg_ms.
func flatten(prefix string, value any, out map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(joinKey(prefix, k), v[k], out)
		}
	case []any:
		for i, item := range v {
			flatten(joinKey(prefix, fmt.Sprint(i)), item, out)
		}
	case nil:
		out[prefix] = ""
	case float64:
		out[prefix] = trimFloat(v)
	default:
		out[prefix] = fmt.Sprint(v)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.4f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
