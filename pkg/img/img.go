package img

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Codec describes an image decoder and encoder.
type Codec interface {
	// Decode reads an image and returns it with the name of its format.
	Decode(r io.Reader) (image.Image, string, error)
	// Encode writes m in the given format. An empty format falls
	// back to the codec default.
	Encode(w io.Writer, m image.Image, format string) error
}

// DecodeError is returned when an image file cannot be read or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %s", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when an image file cannot be encoded or written.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %s: %s", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

var (
	codecsMu sync.RWMutex
	codecs   = map[string]Codec{}
)

// Register adds a new codec to the available codecs.
func Register(name string, c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	codecs[name] = c
}

// Get returns a registered codec.
func Get(name string) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("codec %s not found", name)
	}
	return c, nil
}

// Open decodes the image file at path.
func Open(c Codec, path string) (image.Image, string, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, "", &DecodeError{path, err}
	}
	defer fd.Close()

	m, format, err := c.Decode(fd)
	if err != nil {
		return nil, "", &DecodeError{path, err}
	}
	return m, format, nil
}

// Save encodes m into a new file at path. When the encoding fails,
// the partial file is removed.
func Save(c Codec, m image.Image, path, format string) error {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return &EncodeError{path, err}
	}

	if err = c.Encode(fd, m, format); err != nil {
		fd.Close()
		os.Remove(path)
		return &EncodeError{path, err}
	}

	if err = fd.Close(); err != nil {
		return &EncodeError{path, err}
	}
	return nil
}

// Extension returns the file extension (with the dot) for a format name.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "bmp":
		return ".bmp"
	}
	return ".jpg"
}

// FormatFromPath returns the format name matching a file extension, or
// an empty string when it is unknown.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	}
	return ""
}
