package gltfutil

import "github.com/pkg/errors"

var (
	// ErrOutOfRangeRead is returned when an accessor or bufferView addresses bytes
	// beyond the buffer or view length.
	ErrOutOfRangeRead = errors.New("gltf: out of range read")

	// ErrResourceUnavailable is returned when a buffer or image payload cannot be loaded or decoded.
	ErrResourceUnavailable = errors.New("gltf: resource unavailable")

	// ErrUnsupportedAccessorLayout is returned for MAT2/MAT3 accessors and integer matrices.
	ErrUnsupportedAccessorLayout = errors.New("gltf: unsupported accessor layout")

	// ErrInvalidReference is returned when an index points outside its document array,
	// or when a node is reached through more than one parent.
	ErrInvalidReference = errors.New("gltf: invalid reference")
)
