package gltfutil

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// Load opens a .gltf or .glb file. The returned directory is used to resolve
// relative buffer and image URIs.
func Load(path string) (*gltf.Document, string, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, "", err
	}
	return doc, filepath.Dir(path), nil
}

// Accessor returns the accessor at index.
func Accessor(doc *gltf.Document, index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, errors.Wrapf(ErrInvalidReference, "accessor %d", index)
	}
	return doc.Accessors[index], nil
}
