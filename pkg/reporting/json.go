package reporting

import (
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// UseNumber keeps millisecond timestamps exact when records are re-encoded
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// DefaultJSONFormatter implements JSON output functionality
type DefaultJSONFormatter struct {
	// KeepInfo retains the raw exchange payload of each record
	KeepInfo bool
}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// Format returns v as indented JSON. Unless KeepInfo is set the "info"
// field of every record is removed.
func (f *DefaultJSONFormatter) Format(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	if !f.KeepInfo {
		generic = stripInfo(generic)
	}
	return json.MarshalIndent(generic, "", "  ")
}

func stripInfo(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		delete(x, "info")
		for k, child := range x {
			x[k] = stripInfo(child)
		}
	case []interface{}:
		for i, child := range x {
			x[i] = stripInfo(child)
		}
	}
	return v
}

// Print writes v as JSON to w
func (f *DefaultJSONFormatter) Print(w io.Writer, v interface{}) error {
	if w == nil {
		w = os.Stdout
	}
	data, err := f.Format(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteJSON writes v as JSON to path
func (f *DefaultJSONFormatter) WriteJSON(v interface{}, path string) error {
	data, err := f.Format(v)
	if err != nil {
		return err
	}

	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Package-level convenience function
func WriteJSON(v interface{}, path string) error {
	return NewDefaultJSONFormatter().WriteJSON(v, path)
}
