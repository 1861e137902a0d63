// Package runlog reads the flat node execution records of a workflow run
// from disk and writes reconciled trees back out.
package runlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/vinayprograms/runtrace/internal/trace"
)

// Format is a run log encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// DefaultMaxErrorSize caps record error strings unless overridden.
const DefaultMaxErrorSize = 4 * 1024

// ErrUnknownFormat is returned when a format cannot be detected or is not supported.
var ErrUnknownFormat = errors.New("unknown run log format")

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// DetectFormat picks the format from the file extension, falling back to
// the first bytes of the file.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return sniff(buf[:n])
}

func sniff(head []byte) (Format, error) {
	trimmed := bytes.TrimSpace(head)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnknownFormat)
	}
	switch trimmed[0] {
	case '[':
		return FormatJSON, nil
	case '{':
		// One object per line means JSONL.
		if i := bytes.IndexByte(trimmed, '\n'); i >= 0 {
			rest := bytes.TrimSpace(trimmed[i+1:])
			if len(rest) > 0 && rest[0] == '{' && bytes.HasSuffix(bytes.TrimSpace(trimmed[:i]), []byte("}")) {
				return FormatJSONL, nil
			}
		}
		return FormatJSON, nil
	case '-':
		return FormatYAML, nil
	}
	if bytes.Contains(trimmed, []byte(":")) {
		return FormatYAML, nil
	}
	return "", ErrUnknownFormat
}

type loader struct {
	maxErrorSize int
}

// Option configures Load and Decode.
type Option func(*loader)

// WithMaxErrorSize truncates record error strings longer than size.
// Zero disables truncation.
func WithMaxErrorSize(size int) Option {
	return func(l *loader) {
		l.maxErrorSize = size
	}
}

func newLoader(opts []Option) *loader {
	l := &loader{maxErrorSize: DefaultMaxErrorSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every record from the run log at path.
func Load(path string, opts ...Option) ([]*trace.Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect format: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	defer f.Close()
	return Decode(f, format, opts...)
}

// Decode reads every record from r in the given format.
func Decode(r io.Reader, format Format, opts ...Option) ([]*trace.Record, error) {
	l := newLoader(opts)

	var records []*trace.Record
	var err error
	switch format {
	case FormatJSONL:
		records, err = decodeJSONL(r)
	case FormatJSON:
		var data []byte
		if data, err = io.ReadAll(r); err == nil {
			records, err = decodeJSON(data)
		}
	case FormatYAML:
		records, err = decodeYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if l.maxErrorSize > 0 {
		for _, rec := range records {
			l.truncate(rec)
		}
	}
	return records, nil
}

func (l *loader) truncate(rec *trace.Record) {
	if len(rec.Error) > l.maxErrorSize {
		size := len(rec.Error)
		cut := l.maxErrorSize
		for cut > 0 && !utf8.RuneStart(rec.Error[cut]) {
			cut--
		}
		rec.Error = rec.Error[:cut] + fmt.Sprintf("\n... [truncated, %d bytes total]", size)
	}
}

// envelope is the paged node-executions response shape.
type envelope struct {
	Data []*trace.Record `json:"data"`
}

func decodeJSON(data []byte) ([]*trace.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("failed to parse run log: %w", err)
		}
		return compact(env.Data), nil
	}
	var records []*trace.Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("failed to parse run log: %w", err)
	}
	return compact(records), nil
}

func decodeJSONL(r io.Reader) ([]*trace.Record, error) {
	var records []*trace.Record
	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading JSONL: %w", err)
		}
		lineNo++
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var rec trace.Record
			if perr := json.Unmarshal(trimmed, &rec); perr != nil {
				return nil, fmt.Errorf("failed to parse JSONL line %d: %w", lineNo, perr)
			}
			records = append(records, &rec)
		}
		if err == io.EOF {
			break
		}
	}
	return records, nil
}

// decodeYAML converts the document to JSON so the record struct tags apply.
func decodeYAML(r io.Reader) ([]*trace.Record, error) {
	var doc interface{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse run log: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML run log: %w", err)
	}
	return decodeJSON(data)
}

func compact(records []*trace.Record) []*trace.Record {
	out := records[:0]
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Write encodes records as indented JSON.
func Write(w io.Writer, records []*trace.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// WriteFile writes records as indented JSON to path.
func WriteFile(path string, records []*trace.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
