package files

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	EncodingAuto        = "auto"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows1252"
	EncodingUTF8        = "utf8"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case EncodingLatin1, "iso88591":
		return charmap.ISO8859_1, nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252, nil
	case EncodingUTF8:
		return unicode.UTF8BOM, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

// decode converts raw CSV bytes to UTF-8. With EncodingAuto, valid UTF-8
// input is kept (minus BOM) and anything else is read as Latin-1, which is
// what the spreadsheet exports are written in.
func decode(data []byte, name string) (io.Reader, string, error) {
	if name == "" || strings.EqualFold(name, EncodingAuto) {
		if utf8.Valid(data) {
			return bytes.NewReader(bytes.TrimPrefix(data, bomUTF8)), EncodingUTF8, nil
		}
		name = EncodingLatin1
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, "", err
	}
	return enc.NewDecoder().Reader(bytes.NewReader(data)), name, nil
}
