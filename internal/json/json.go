// Package json wraps bytedance/sonic behind the encoding/json call surface.
// Output is deterministic (map keys sorted) and does not HTML-escape, so text
// rendered from it matches what a browser JSON.stringify would show.
package json

import (
	stdjson "encoding/json"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tidwall/pretty"
)

var api = sonic.Config{
	SortMapKeys:      true,
	EscapeHTML:       false,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
}.Froze()

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent is like Marshal but applies indent to format the output.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// UnmarshalString is Unmarshal for string input without a copy.
func UnmarshalString(data string, v any) error {
	return api.UnmarshalFromString(data, v)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return api.Valid(data)
}

type (
	RawMessage  = stdjson.RawMessage
	Number      = stdjson.Number
	SyntaxError = stdjson.SyntaxError
)

// Encoder writes JSON values to an output stream.
type Encoder struct {
	enc sonic.Encoder
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: api.NewEncoder(w)}
}

func (e *Encoder) Encode(v any) error { return e.enc.Encode(v) }

func (e *Encoder) SetIndent(prefix, indent string) { e.enc.SetIndent(prefix, indent) }

// Decoder reads and decodes JSON values from an input stream.
type Decoder struct {
	dec sonic.Decoder
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: api.NewDecoder(r)}
}

func (d *Decoder) Decode(v any) error { return d.dec.Decode(v) }

func (d *Decoder) DisallowUnknownFields() { d.dec.DisallowUnknownFields() }

// Indent re-indents raw JSON without reordering keys. Arrays are never folded
// onto one line.
func Indent(raw []byte, indent string) []byte {
	out := pretty.PrettyOptions(raw, &pretty.Options{
		Width:    0,
		Prefix:   "",
		Indent:   indent,
		SortKeys: false,
	})
	return []byte(strings.TrimRight(string(out), "\n"))
}

// IndentString is Indent for string input.
func IndentString(raw string, indent string) string {
	return string(Indent([]byte(raw), indent))
}

// Compact strips insignificant whitespace from raw JSON.
func Compact(raw []byte) []byte {
	return pretty.Ugly(raw)
}
