// ABOUTME: Image attachment encoding to self-contained data URIs
// ABOUTME: Detects MIME type from content and rejects non-images before encoding

package chat

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxImageBytes bounds attachments when no limit is configured.
const DefaultMaxImageBytes = 5 << 20

// EncodeImage validates raw image bytes and returns a base64 data URI.
// maxBytes <= 0 means DefaultMaxImageBytes.
func EncodeImage(data []byte, maxBytes int) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if len(data) == 0 {
		return "", validationError("image is empty")
	}
	if len(data) > maxBytes {
		return "", validationError("image is %d bytes, limit is %d", len(data), maxBytes)
	}

	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", validationError("unsupported attachment type %s", mime)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ReadImageFile reads path and encodes it with EncodeImage. The size check
// happens before the file is read into memory.
func ReadImageFile(path string, maxBytes int) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if info.IsDir() {
		return "", validationError("%s is a directory", path)
	}
	if info.Size() > int64(maxBytes) {
		return "", validationError("image is %d bytes, limit is %d", info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	return EncodeImage(data, maxBytes)
}

// ParseDataURI splits an image data URI into its MIME type and decoded bytes.
func ParseDataURI(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, validationError("image must be a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, validationError("malformed data URI")
	}
	mime, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, validationError("data URI must be base64 encoded")
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", nil, validationError("unsupported attachment type %s", mime)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, validationError("data URI payload: %v", err)
	}
	return mime, data, nil
}
