package blob

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidMedia is returned when an inline media payload cannot be decoded.
var ErrInvalidMedia = errors.New("invalid image data")

const maxExtLen = 10

// DecodeInline decodes a raw base64 string or a data URL
// ("data:image/png;base64,....") and picks a file extension: the one in
// filename if present, otherwise one sniffed from the content, otherwise "bin".
func DecodeInline(payload, filename string) ([]byte, string, error) {
	b64 := payload
	if strings.HasPrefix(payload, "data:") {
		if _, rest, ok := strings.Cut(payload, ","); ok {
			b64 = rest
		}
	}
	b64 = strings.TrimSpace(b64)

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(b64, "="))
	}
	if err != nil || len(data) == 0 {
		return nil, "", ErrInvalidMedia
	}

	if ext := extensionFromName(filename); ext != "" {
		return data, ext, nil
	}
	if ext := strings.TrimPrefix(mimetype.Detect(data).Extension(), "."); ext != "" {
		return data, ext, nil
	}
	return data, "bin", nil
}

func extensionFromName(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	ext := strings.ToLower(filename[i+1:])
	if len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
