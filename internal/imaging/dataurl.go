package imaging

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeDataURL extracts the bytes of a base64 "data:" URL, the form
// browsers produce when reading a picked file.
func DecodeDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URL", ErrUnsupported)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URL is not base64", ErrUnsupported)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URL: %w", err)
	}
	return data, nil
}

// EncodeDataURL is the inverse of DecodeDataURL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
