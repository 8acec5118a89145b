package scan

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// textCodec encodes and decodes record name fields for one configured
// text encoding.
type textCodec struct {
	bytesPerChar int
	enc          *encoding.Encoder
	dec          *encoding.Decoder
}

var (
	utf16Codec = &textCodec{
		bytesPerChar: 2,
		enc:          unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder(),
		dec:          unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(),
	}
	latin1Codec = &textCodec{
		bytesPerChar: 1,
		enc:          charmap.ISO8859_1.NewEncoder(),
		dec:          charmap.ISO8859_1.NewDecoder(),
	}
	utf8Codec = &textCodec{bytesPerChar: 1}
)

func codecFor(name string) (*textCodec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf16", "utf-16", "utf-16le", "utf16le":
		return utf16Codec, nil
	case "utf8", "utf-8", "ascii":
		return utf8Codec, nil
	case "latin1", "latin-1", "iso8859-1", "iso-8859-1":
		return latin1Codec, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// encode converts a name to its in-memory bytes without terminator.
func (c *textCodec) encode(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	return c.enc.Bytes([]byte(s))
}

// decode converts raw field bytes back to a string.
func (c *textCodec) decode(b []byte) (string, error) {
	if c.dec == nil {
		return string(b), nil
	}
	out, err := c.dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Pattern is one canonical terminated byte pattern, tagged with the
// table and offset role it belongs to so a match can never be
// attributed to the wrong role or table.
type Pattern struct {
	Table TableKind
	Role  string
	Name  string
	Bytes []byte
}

// EncodePatterns builds the tagged pattern set for every complete
// table in the config. Names that cannot be encoded are skipped and
// counted; identical encoded bytes within one role are deduplicated.
func EncodePatterns(cfg *Config) (patterns []Pattern, skipped int) {
	for _, kind := range AllTables {
		tc := cfg.Table(kind)
		if tc.Check(kind) != nil {
			continue
		}
		codec, err := codecFor(tc.Encoding)
		if err != nil {
			continue
		}
		terminator := make([]byte, codec.bytesPerChar)

		for _, role := range tc.Roles() {
			seen := make(map[string]bool)
			for _, name := range tc.Names[role] {
				name = strings.TrimSpace(name)
				if name == "" {
					skipped++
					continue
				}
				encoded, err := codec.encode(name)
				if err != nil {
					skipped++
					continue
				}
				// Terminated pattern: a shorter name embedded in a
				// longer one does not match.
				encoded = append(encoded, terminator...)
				if seen[string(encoded)] {
					continue
				}
				seen[string(encoded)] = true
				patterns = append(patterns, Pattern{
					Table: kind,
					Role:  role,
					Name:  name,
					Bytes: encoded,
				})
			}
		}
	}
	return patterns, skipped
}

// maxPatternLen returns the longest pattern byte length, used to size
// chunk overlap so no match can straddle a chunk boundary unseen.
func maxPatternLen(patterns []Pattern) int {
	max := 0
	for _, p := range patterns {
		if len(p.Bytes) > max {
			max = len(p.Bytes)
		}
	}
	return max
}
