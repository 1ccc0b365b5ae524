package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is a local file offered for upload.
type File struct {
	Name      string
	MediaType string // declared or sniffed, parameters allowed
	Size      int64
	Open      func() (io.ReadCloser, error)
}

// FileFromPath describes the file at path. The media type is detected from
// the content, not the extension.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, fmt.Errorf("detect media type of %s: %w", path, err)
	}
	return File{
		Name:      filepath.Base(path),
		MediaType: mt.String(),
		Size:      info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FileFromBytes wraps in-memory content, sniffing its media type.
func FileFromBytes(name string, data []byte) File {
	return File{
		Name:      name,
		MediaType: mimetype.Detect(data).String(),
		Size:      int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// baseMediaType strips parameters and case from a media type.
func baseMediaType(mt string) string {
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	base, _, _ := strings.Cut(mt, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func accepted(mt string, allowed []string) bool {
	base := baseMediaType(mt)
	if base == "" {
		return false
	}
	for _, a := range allowed {
		if baseMediaType(a) == base {
			return true
		}
	}
	return false
}
