package plan

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// payloadDecoders is the fixed ordered list of text encodings tried when
// decoding a raw plan payload. Plans captured on Windows hosts arrive as
// UTF-16 with a BOM; everything else is expected to be UTF-8 with Latin-1
// and Windows-1252 as fallbacks.
var payloadDecoders = []struct {
	name    string
	decoder *encoding.Decoder
}{
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()},
	{"utf-8", nil}, // validity-checked, no transform needed
	{"latin-1", charmap.ISO8859_1.NewDecoder()},
	{"cp1252", charmap.Windows1252.NewDecoder()},
}

// decodePayload converts raw bytes to text, trying each supported encoding
// in order until one succeeds.
func decodePayload(engine string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", &DecodeError{Engine: engine, Message: "empty plan payload"}
	}

	for _, d := range payloadDecoders {
		switch {
		case d.decoder == nil:
			if utf8.Valid(raw) {
				return string(raw), nil
			}
		case d.name == "utf-16":
			if !hasUTF16BOM(raw) {
				continue
			}
			if text, err := d.decoder.Bytes(raw); err == nil {
				return string(text), nil
			}
		default:
			if text, err := d.decoder.Bytes(raw); err == nil {
				return string(text), nil
			}
		}
	}

	return "", &DecodeError{Engine: engine, Message: "payload not decodable with any supported encoding"}
}

// hasUTF16BOM reports whether the payload starts with a UTF-16 byte order mark.
func hasUTF16BOM(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF})
}

// stripFraming removes engine tooling framing from a decoded payload: a
// leading "EXPLAIN" banner before the structured output and escaped newline
// and tab sequences left behind by shell capture.
func stripFraming(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToUpper(text), "EXPLAIN") {
		text = strings.TrimSpace(text[len("EXPLAIN"):])
	}
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\t`, "\t")
	return text
}
