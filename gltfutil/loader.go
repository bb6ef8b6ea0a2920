package gltfutil

import (
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Loader fetches the bytes behind a buffer or image URI.
// dir is the directory of the glTF file.
type Loader interface {
	Load(uri, dir string) ([]byte, error)
}

type LoaderFunc func(uri, dir string) ([]byte, error)

func (f LoaderFunc) Load(uri, dir string) ([]byte, error) {
	return f(uri, dir)
}

// FileLoader reads data URIs and relative file paths.
type FileLoader struct{}

func (FileLoader) Load(uri, dir string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}
	path, err := url.PathUnescape(uri)
	if err != nil {
		path = uri
	}
	return os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
}

func decodeDataURI(uri string) ([]byte, error) {
	p := strings.IndexByte(uri, ',')
	if p < 0 {
		return nil, errors.New("malformed data uri")
	}
	header, payload := uri[len("data:"):p], uri[p+1:]
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}
