package ir

import (
	"bytes"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// quoteText renders s as a double-quoted literal for dumps and fingerprints.
//
// Text is NFC normalized first, so canonically equivalent literals dump (and
// hash) identically. HTML characters are left alone; only quotes, backslashes
// and control characters are escaped.
func quoteText(s string) string {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		// Encoding a Go string cannot fail.
		panic(err)
	}

	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return string(out)
}
