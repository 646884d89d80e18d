package app

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgnsrekt/docent/generate"
)

// MaxImageSize is the largest image that will be sent for narration.
const MaxImageSize = 20 << 20

// ErrNotImage is returned for files that do not look like images.
var ErrNotImage = errors.New("not an image")

// imageTypes are the extensions narrated from files, with the MIME type
// used when content sniffing cannot tell.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
	".gif":  "image/gif",
}

// IsImagePath reports whether path has an image extension.
func IsImagePath(path string) bool {
	_, ok := imageTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadImage reads an image from r. name is used to guess the type when
// the content does not identify it and may be empty.
func ReadImage(r io.Reader, name string) (generate.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return generate.Image{}, err
	}
	if len(data) > MaxImageSize {
		return generate.Image{}, fmt.Errorf("image is larger than %d MB", MaxImageSize>>20)
	}
	if len(data) == 0 {
		return generate.Image{}, fmt.Errorf("%w: empty input", ErrNotImage)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		ext := strings.ToLower(filepath.Ext(name))
		guess, ok := imageTypes[ext]
		if !ok {
			guess = mime.TypeByExtension(ext)
		}
		if !strings.HasPrefix(guess, "image/") {
			return generate.Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, mimeType)
		}
		mimeType = guess
	}
	return generate.Image{Data: data, MIMEType: mimeType}, nil
}

// LoadImage reads the image at path, or from stdin when path is "-".
func LoadImage(path string) (generate.Image, error) {
	if path == "-" {
		return ReadImage(os.Stdin, "")
	}
	f, err := os.Open(path)
	if err != nil {
		return generate.Image{}, err
	}
	defer f.Close()
	return ReadImage(f, path)
}
