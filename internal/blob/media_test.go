package blob

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG.
const pngB64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestDecodeInline(t *testing.T) {
	plain := base64.StdEncoding.EncodeToString([]byte("hello"))

	tests := []struct {
		name     string
		payload  string
		filename string
		wantExt  string
	}{
		{"raw with filename", plain, "notes.TXT", "txt"},
		{"data url with filename", "data:text/plain;base64," + plain, "a.b.md", "md"},
		{"sniffed png", "data:image/png;base64," + pngB64, "", "png"},
		{"unknown falls back to bin", base64.StdEncoding.EncodeToString([]byte{0x00, 0x01, 0x02}), "noext", "bin"},
		{"unpadded", base64.RawStdEncoding.EncodeToString([]byte("hello!!")), "x.txt", "txt"},
		{"odd extension ignored", plain, "evil.p/ng", "txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ext, err := DecodeInline(tt.payload, tt.filename)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestDecodeInlineRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"", "data:image/png;base64,", "!!!not base64!!!"} {
		_, _, err := DecodeInline(payload, "")
		assert.ErrorIs(t, err, ErrInvalidMedia, payload)
	}
}
