package gltfutil

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

type bufferEntry struct {
	data []byte
	err  error
}

// BufferResolver maps buffer indices to bytes. Each buffer is loaded at most once
// per resolver, failures included.
type BufferResolver struct {
	doc    *gltf.Document
	dir    string
	loader Loader
	cache  map[uint32]*bufferEntry
}

func NewBufferResolver(doc *gltf.Document, dir string, loader Loader) *BufferResolver {
	if loader == nil {
		loader = FileLoader{}
	}
	return &BufferResolver{doc: doc, dir: dir, loader: loader, cache: map[uint32]*bufferEntry{}}
}

// Resolve returns the contents of buffer index, from embedded data (GLB or data URI)
// or loaded through the Loader.
func (r *BufferResolver) Resolve(index uint32) ([]byte, error) {
	if int(index) >= len(r.doc.Buffers) {
		return nil, errors.Wrapf(ErrInvalidReference, "buffer %d", index)
	}
	if e, ok := r.cache[index]; ok {
		return e.data, e.err
	}

	e := &bufferEntry{}
	b := r.doc.Buffers[index]
	if len(b.Data) > 0 {
		e.data = b.Data
	} else if b.URI == "" {
		e.err = errors.Wrapf(ErrResourceUnavailable, "buffer %d has no data", index)
	} else if data, err := r.loader.Load(b.URI, r.dir); err != nil {
		e.err = errors.Wrapf(ErrResourceUnavailable, "buffer %d %q: %v", index, b.URI, err)
	} else {
		e.data = data
	}
	r.cache[index] = e
	return e.data, e.err
}

func (r *BufferResolver) bufferView(index uint32) (*gltf.BufferView, []byte, error) {
	if int(index) >= len(r.doc.BufferViews) {
		return nil, nil, errors.Wrapf(ErrInvalidReference, "bufferView %d", index)
	}
	view := r.doc.BufferViews[index]
	buf, err := r.Resolve(view.Buffer)
	if err != nil {
		return nil, nil, err
	}
	return view, buf, nil
}

// ResolveBufferView returns the bytes covered by bufferView index.
func (r *BufferResolver) ResolveBufferView(index uint32) ([]byte, error) {
	view, buf, err := r.bufferView(index)
	if err != nil {
		return nil, err
	}
	end := uint64(view.ByteOffset) + uint64(view.ByteLength)
	if end > uint64(len(buf)) {
		return nil, errors.Wrapf(ErrOutOfRangeRead, "bufferView %d [%d,%d) exceeds buffer length %d", index, view.ByteOffset, end, len(buf))
	}
	return buf[view.ByteOffset:end], nil
}

// maxZeroFillBytes bounds accessors that have no bufferView to back their count.
const maxZeroFillBytes = 1 << 28

// ReadAccessor decodes accessor index including sparse substitution.
// Accessors without a bufferView yield zero-filled data.
func (r *BufferResolver) ReadAccessor(index uint32) (interface{}, error) {
	acr, err := Accessor(r.doc, index)
	if err != nil {
		return nil, err
	}
	var data interface{}
	if acr.BufferView == nil {
		if size := uint64(acr.Count) * uint64(ElementSize(acr.ComponentType, acr.Type)); size > maxZeroFillBytes {
			return nil, errors.Wrapf(ErrOutOfRangeRead, "accessor %d: %d bytes without a bufferView", index, size)
		}
		data, err = makeSlice(acr.ComponentType, acr.Type, acr.Count)
	} else {
		view, buf, verr := r.bufferView(*acr.BufferView)
		if verr != nil {
			return nil, errors.Wrapf(verr, "accessor %d", index)
		}
		data, err = DecodeAccessor(acr, view, buf)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "accessor %d", index)
	}
	if acr.Sparse != nil && acr.Sparse.Count > 0 {
		if err := r.applySparse(acr, data); err != nil {
			return nil, errors.Wrapf(err, "accessor %d sparse", index)
		}
	}
	return data, nil
}

func (r *BufferResolver) applySparse(acr *gltf.Accessor, data interface{}) error {
	s := acr.Sparse
	view, buf, err := r.bufferView(s.Indices.BufferView)
	if err != nil {
		return err
	}
	indices, err := DecodeAccessor(&gltf.Accessor{
		ByteOffset:    s.Indices.ByteOffset,
		ComponentType: s.Indices.ComponentType,
		Type:          gltf.AccessorScalar,
		Count:         s.Count,
	}, view, buf)
	if err != nil {
		return err
	}
	idx, err := Uint32s(indices)
	if err != nil {
		return err
	}

	view, buf, err = r.bufferView(s.Values.BufferView)
	if err != nil {
		return err
	}
	values, err := DecodeAccessor(&gltf.Accessor{
		ByteOffset:    s.Values.ByteOffset,
		ComponentType: acr.ComponentType,
		Type:          acr.Type,
		Count:         s.Count,
	}, view, buf)
	if err != nil {
		return err
	}

	dst := reflect.ValueOf(data)
	src := reflect.ValueOf(values)
	for i, j := range idx {
		if int(j) >= dst.Len() {
			return errors.Wrapf(ErrOutOfRangeRead, "sparse index %d >= count %d", j, dst.Len())
		}
		dst.Index(int(j)).Set(src.Index(i))
	}
	return nil
}
