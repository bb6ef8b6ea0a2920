package gltfutil

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/binary"
)

func Components(t gltf.AccessorType) uint32 {
	switch t {
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	default:
		return 1
	}
}

func BytesPerComponent(c gltf.ComponentType) uint32 {
	switch c {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	default:
		return 4
	}
}

// ElementSize returns the unpadded byte size of one accessor element.
func ElementSize(c gltf.ComponentType, t gltf.AccessorType) uint32 {
	return Components(t) * BytesPerComponent(c)
}

func accessorTypeName(t gltf.AccessorType) string {
	return [...]string{"SCALAR", "VEC2", "VEC3", "VEC4", "MAT2", "MAT3", "MAT4"}[t%7]
}

func makeSlice(c gltf.ComponentType, t gltf.AccessorType, n uint32) (interface{}, error) {
	switch c {
	case gltf.ComponentFloat:
		switch t {
		case gltf.AccessorScalar:
			return make([]float32, n), nil
		case gltf.AccessorVec2:
			return make([][2]float32, n), nil
		case gltf.AccessorVec3:
			return make([][3]float32, n), nil
		case gltf.AccessorVec4:
			return make([][4]float32, n), nil
		case gltf.AccessorMat4:
			return make([][16]float32, n), nil
		}
	case gltf.ComponentByte:
		switch t {
		case gltf.AccessorScalar:
			return make([]int8, n), nil
		case gltf.AccessorVec2:
			return make([][2]int8, n), nil
		case gltf.AccessorVec3:
			return make([][3]int8, n), nil
		case gltf.AccessorVec4:
			return make([][4]int8, n), nil
		}
	case gltf.ComponentUbyte:
		switch t {
		case gltf.AccessorScalar:
			return make([]uint8, n), nil
		case gltf.AccessorVec2:
			return make([][2]uint8, n), nil
		case gltf.AccessorVec3:
			return make([][3]uint8, n), nil
		case gltf.AccessorVec4:
			return make([][4]uint8, n), nil
		}
	case gltf.ComponentShort:
		switch t {
		case gltf.AccessorScalar:
			return make([]int16, n), nil
		case gltf.AccessorVec2:
			return make([][2]int16, n), nil
		case gltf.AccessorVec3:
			return make([][3]int16, n), nil
		case gltf.AccessorVec4:
			return make([][4]int16, n), nil
		}
	case gltf.ComponentUshort:
		switch t {
		case gltf.AccessorScalar:
			return make([]uint16, n), nil
		case gltf.AccessorVec2:
			return make([][2]uint16, n), nil
		case gltf.AccessorVec3:
			return make([][3]uint16, n), nil
		case gltf.AccessorVec4:
			return make([][4]uint16, n), nil
		}
	case gltf.ComponentUint:
		switch t {
		case gltf.AccessorScalar:
			return make([]uint32, n), nil
		case gltf.AccessorVec2:
			return make([][2]uint32, n), nil
		case gltf.AccessorVec3:
			return make([][3]uint32, n), nil
		case gltf.AccessorVec4:
			return make([][4]uint32, n), nil
		}
	}
	return nil, errors.Wrapf(ErrUnsupportedAccessorLayout, "component %d type %s", c, accessorTypeName(t))
}

// DecodeAccessor reads the elements addressed by acr from buf.
// view must be the accessor's bufferView and buf the whole referenced buffer.
//
// The result is a slice typed by the accessor layout: []float32, [][3]float32,
// [][4]uint16, [][16]float32 (column-major MAT4), etc.
func DecodeAccessor(acr *gltf.Accessor, view *gltf.BufferView, buf []byte) (interface{}, error) {
	// layout check only; nothing is allocated until the range is validated
	data, err := makeSlice(acr.ComponentType, acr.Type, 0)
	if err != nil {
		return nil, err
	}
	if acr.Count == 0 {
		return data, nil
	}

	elemSize := ElementSize(acr.ComponentType, acr.Type)
	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if stride < elemSize {
		return nil, errors.Wrapf(ErrOutOfRangeRead, "byteStride %d < element size %d", stride, elemSize)
	}

	start := uint64(view.ByteOffset) + uint64(acr.ByteOffset)
	end := start + uint64(stride)*uint64(acr.Count-1) + uint64(elemSize)
	limit := uint64(len(buf))
	if end > limit {
		return nil, errors.Wrapf(ErrOutOfRangeRead, "read [%d,%d) exceeds buffer length %d", start, end, limit)
	}
	if viewEnd := uint64(view.ByteOffset) + uint64(view.ByteLength); view.ByteLength > 0 {
		if end > viewEnd {
			return nil, errors.Wrapf(ErrOutOfRangeRead, "read [%d,%d) exceeds bufferView end %d", start, end, viewEnd)
		}
		if viewEnd < limit {
			limit = viewEnd
		}
	}
	b := buf[start:limit]

	if data, err = makeSlice(acr.ComponentType, acr.Type, acr.Count); err != nil {
		return nil, err
	}
	if mat, ok := data.([][16]float32); ok {
		// matrices are read column by column into a flat array
		col := make([]float32, 16)
		for i := range mat {
			off := uint64(i) * uint64(stride)
			if err := binary.Read(b[off:off+64], 0, col); err != nil {
				return nil, errors.Wrap(ErrOutOfRangeRead, err.Error())
			}
			copy(mat[i][:], col)
		}
		return mat, nil
	}

	if err := binary.Read(b, stride, data); err != nil {
		return nil, errors.Wrap(ErrOutOfRangeRead, err.Error())
	}
	return data, nil
}

// ElementCount returns the number of elements in decoded accessor data.
func ElementCount(data interface{}) int {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return 0
	}
	return v.Len()
}

// Float32s flattens decoded accessor data into float32 components.
// Integer components are mapped to [0,1] or [-1,1] when normalized is set.
func Float32s(data interface{}, normalized bool) []float32 {
	if f, ok := data.([]float32); ok {
		return f
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return nil
	}
	var out []float32
	for i := 0; i < v.Len(); i++ {
		e := v.Index(i)
		if e.Kind() == reflect.Array {
			for j := 0; j < e.Len(); j++ {
				out = append(out, toFloat32(e.Index(j), normalized))
			}
		} else {
			out = append(out, toFloat32(e, normalized))
		}
	}
	return out
}

func toFloat32(v reflect.Value, normalized bool) float32 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return float32(v.Float())
	case reflect.Int8, reflect.Int16:
		f := float32(v.Int())
		if !normalized {
			return f
		}
		if v.Kind() == reflect.Int8 {
			f /= 127
		} else {
			f /= 32767
		}
		if f < -1 {
			f = -1
		}
		return f
	case reflect.Uint8:
		if normalized {
			return float32(v.Uint()) / 255
		}
		return float32(v.Uint())
	case reflect.Uint16:
		if normalized {
			return float32(v.Uint()) / 65535
		}
		return float32(v.Uint())
	case reflect.Uint32:
		if normalized {
			return float32(float64(v.Uint()) / 4294967295)
		}
		return float32(v.Uint())
	}
	return 0
}

// Uint32s converts scalar unsigned integer data (index accessors) to []uint32.
func Uint32s(data interface{}) ([]uint32, error) {
	switch d := data.(type) {
	case []uint32:
		return d, nil
	case []uint16:
		out := make([]uint32, len(d))
		for i, v := range d {
			out[i] = uint32(v)
		}
		return out, nil
	case []uint8:
		out := make([]uint32, len(d))
		for i, v := range d {
			out[i] = uint32(v)
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedAccessorLayout, "%T is not an index type", data)
}
