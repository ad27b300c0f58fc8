package ocr

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/swiftscan/constants"
	"github.com/joseph-ayodele/swiftscan/internal/common"
)

// ErrBadDataURI is returned for uploads that are not base64 image data URIs.
var ErrBadDataURI = fmt.Errorf("invalid image data uri: %w", common.ErrInvalidInput)

// DecodeDataURI parses "data:image/<type>;base64,<payload>" as produced by a
// canvas capture and returns the raw bytes and a file extension.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing data: prefix", ErrBadDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing payload", ErrBadDataURI)
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return nil, "", fmt.Errorf("%w: only base64 payloads are supported", ErrBadDataURI)
	}
	ext := constants.ExtForMIME(mime)
	if ext == "" {
		return nil, "", fmt.Errorf("%w: unsupported media type %q", ErrBadDataURI, mime)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some encoders drop padding
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBadDataURI, err)
		}
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", ErrBadDataURI)
	}
	return data, ext, nil
}
