// Package render writes command results as human tables, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"bazi/internal/output"
)

// Format selects the output encoding.
type Format string

const (
	Human Format = "human"
	JSON  Format = "json"
	YAML  Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Human, JSON, YAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (human, json, yaml)", s)
}

// Write encodes v to w. Human output falls back to indented JSON for types
// without a table layout.
func Write(w io.Writer, v interface{}, f Format) error {
	switch f {
	case JSON:
		data, err := output.DeterministicEncodeIndented(v, "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case YAML:
		return writeYAML(w, v)
	case Human:
		text, ok := humanize(v)
		if !ok {
			return Write(w, v, JSON)
		}
		_, err := io.WriteString(w, text)
		return err
	}
	return fmt.Errorf("unsupported format %q", f)
}

func writeYAML(w io.Writer, v interface{}) error {
	normalized, err := output.Normalize(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(numbers(normalized)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// numbers turns json.Number leaves back into numerals; YAML would otherwise
// quote them as strings.
func numbers(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]interface{}:
		for k, item := range val {
			val[k] = numbers(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = numbers(item)
		}
		return val
	}
	return v
}
