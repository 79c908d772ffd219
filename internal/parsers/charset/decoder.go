// Package charset detects and decodes the text encodings seen in merchant
// feed uploads. FTP exports from legacy systems are frequently Windows-1252;
// everything else is UTF-8.
package charset

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding names a supported text encoding.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
)

// DetectEncoding inspects a byte buffer and picks the most likely encoding.
// A UTF-8 BOM or valid UTF-8 content selects UTF-8; anything else is assumed
// Windows-1252, which decodes every byte sequence without error.
func DetectEncoding(data []byte) Encoding {
	if hasUTF8BOM(data) {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// Decode converts a byte buffer from the given encoding to a UTF-8 string,
// stripping any leading BOM.
func Decode(data []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingUTF8, "":
		if hasUTF8BOM(data) {
			data = data[3:]
		}
		return string(data), nil
	case EncodingWindows1252:
		reader := transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
		decoded, err := io.ReadAll(reader)
		if err != nil {
			return "", fmt.Errorf("failed to decode windows-1252 content: %w", err)
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", enc)
	}
}

func hasUTF8BOM(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF
}
