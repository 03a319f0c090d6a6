// Package filex reads local files for upload.
package filex

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// File is a local file loaded into memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// readFile is a test seam.
var readFile = os.ReadFile

// Load reads path and guesses its content type, first from the extension
// and then by sniffing the data.
func Load(path string) (*File, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &File{
		Name:        filepath.Base(path),
		ContentType: ContentType(path, data),
		Data:        data,
	}, nil
}

// ContentType returns the MIME type for a file named name with the given
// contents, without parameters.
func ContentType(name string, data []byte) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
