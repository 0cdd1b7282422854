// Package output renders analysis results in the formats the CLI exposes.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Formatter converts an arbitrary result structure into displayable bytes
type Formatter interface {
	Format(data any, pretty bool) ([]byte, error)
}

// NewFormatter returns the formatter for the given format name.
// Unknown names fall back to JSON.
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "yaml":
		return &YAMLFormatter{}
	case "csv":
		return &CSVFormatter{}
	case "table":
		return &TableFormatter{}
	default:
		return &JSONFormatter{}
	}
}

// JSONFormatter renders results as JSON, indented when pretty is set
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, pretty bool) ([]byte, error) {
	var (
		encoded []byte
		err     error
	)
	if pretty {
		encoded, err = json.MarshalIndent(data, "", "  ")
	} else {
		encoded, err = json.Marshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(encoded, '\n'), nil
}

// YAMLFormatter renders results as YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any, _ bool) ([]byte, error) {
	encoded, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoded, nil
}

// CSVFormatter renders results as two-column field,value rows with nested
// structures flattened into dotted paths.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(data any, _ bool) ([]byte, error) {
	rows, err := flattenData(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"field", "value"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.key, row.value}); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// TableFormatter renders results as an aligned two-column text table with
// humanized field names.
type TableFormatter struct{}

func (f *TableFormatter) Format(data any, _ bool) ([]byte, error) {
	rows, err := flattenData(data)
	if err != nil {
		return nil, err
	}

	titler := cases.Title(language.English)

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tVALUE")
	for _, row := range rows {
		label := titler.String(strings.ReplaceAll(row.key, "_", " "))
		fmt.Fprintf(w, "%s\t%s\n", label, row.value)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush table: %w", err)
	}
	return buf.Bytes(), nil
}

type flatRow struct {
	key   string
	value string
}

// flattenData reduces an arbitrary structure to sorted key/value pairs by
// round-tripping through JSON, so struct tags control the field names.
func flattenData(data any) ([]flatRow, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten data: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode flattened data: %w", err)
	}

	var rows []flatRow
	flattenValue("", tree, &rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })
	return rows, nil
}

func flattenValue(prefix string, value any, rows *[]flatRow) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValue(joinKey(prefix, k), v[k], rows)
		}
	case []any:
		for i, item := range v {
			flattenValue(joinKey(prefix, fmt.Sprintf("%d", i)), item, rows)
		}
	case nil:
		*rows = append(*rows, flatRow{key: prefix, value: ""})
	default:
		*rows = append(*rows, flatRow{key: prefix, value: fmt.Sprintf("%v", v)})
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
