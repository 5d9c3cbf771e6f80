package util

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

// TextDecoder turns received byte chunks into printable text.  It never
// fails: bytes that are not valid in the source encoding come out as
// U+FFFD.
type TextDecoder struct {
	name string
	enc  encoding.Encoding
}

// NewTextDecoder looks up an encoding by its WHATWG label ("utf-8",
// "latin1", "shift_jis", ...).  An empty name selects UTF-8.
func NewTextDecoder(name string) (*TextDecoder, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = strings.ToLower(name)
	}
	return &TextDecoder{name: canonical, enc: enc}, nil
}

// Name returns the canonical encoding name.
func (d *TextDecoder) Name() string { return d.name }

// Decode converts chunk to a UTF-8 string.  Decoders carry state, so a
// fresh one is used per call and a TextDecoder is safe for concurrent use.
func (d *TextDecoder) Decode(chunk []byte) string {
	out, err := d.enc.NewDecoder().Bytes(chunk)
	if err != nil {
		return strings.ToValidUTF8(string(chunk), "\uFFFD")
	}
	return string(out)
}
