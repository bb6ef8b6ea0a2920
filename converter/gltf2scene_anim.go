package converter

import (
	"reflect"

	"github.com/binzume/gltfscene/gltfutil"
	"github.com/binzume/gltfscene/scene"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

var trsKeyPaths = map[gltf.TRSProperty]string{
	gltf.TRSTranslation: "position",
	gltf.TRSRotation:    "orientation",
	gltf.TRSScale:       "scale",
}

func (b *sceneBuilder) buildAnimations() {
	for ai, anim := range b.doc.Animations {
		for ci, ch := range anim.Channels {
			if err := b.buildChannel(anim, ch); err != nil {
				b.warn(errors.Wrapf(err, "animation %d channel %d", ai, ci))
			}
		}
	}
	if b.maxDuration > 0 {
		for _, g := range b.groups {
			g.Duration = b.maxDuration
		}
	}
}

func (b *sceneBuilder) group(index uint32, node *scene.Node) *scene.AnimationGroup {
	if g, ok := b.groups[index]; ok {
		return g
	}
	g := &scene.AnimationGroup{RepeatCount: scene.RepeatForever}
	node.Animation = g
	b.groups[index] = g
	return g
}

// keyTimes returns key times normalized by the last one, and the last one as duration.
func (b *sceneBuilder) keyTimes(index uint32) ([]float32, float64, error) {
	data, err := b.buffers.ReadAccessor(index)
	if err != nil {
		return nil, 0, errors.Wrap(err, "input")
	}
	times := gltfutil.Float32s(data, b.doc.Accessors[index].Normalized)
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return nil, 0, errors.Wrapf(ErrUnsortedKeyTimes, "key %d: %g < %g", i, times[i], times[i-1])
		}
	}
	keys := make([]float32, len(times))
	if len(times) == 0 {
		return keys, 0, nil
	}
	duration := times[len(times)-1]
	if duration != 0 {
		for i, t := range times {
			keys[i] = t / duration
		}
	}
	return keys, float64(duration), nil
}

// cubicSplineValues drops the in/out tangents of CUBICSPLINE sampler output.
func cubicSplineValues(data interface{}, keys int) (interface{}, error) {
	v := reflect.ValueOf(data)
	n := v.Len()
	if keys == 0 || n%(keys*3) != 0 {
		return nil, errors.Wrapf(ErrChannelDataCountMismatch, "cubic spline output %d for %d keys", n, keys)
	}
	per := n / keys
	third := per / 3
	out := reflect.MakeSlice(v.Type(), 0, keys*third)
	for k := 0; k < keys; k++ {
		out = reflect.AppendSlice(out, v.Slice(k*per+third, k*per+2*third))
	}
	return out.Interface(), nil
}

// floatVectors converts integer (quantized) output to float vectors.
func floatVectors(data interface{}, normalized bool, components int) interface{} {
	switch data.(type) {
	case [][3]float32, [][4]float32:
		return data
	}
	f := gltfutil.Float32s(data, normalized)
	if components == 4 {
		out := make([][4]float32, len(f)/4)
		for i := range out {
			copy(out[i][:], f[i*4:])
		}
		return out
	}
	out := make([][3]float32, len(f)/3)
	for i := range out {
		copy(out[i][:], f[i*3:])
	}
	return out
}

func (b *sceneBuilder) buildChannel(anim *gltf.Animation, ch *gltf.Channel) error {
	if ch.Sampler == nil || ch.Target.Node == nil {
		return nil
	}
	if int(*ch.Sampler) >= len(anim.Samplers) {
		return errors.Wrapf(gltfutil.ErrInvalidReference, "sampler %d", *ch.Sampler)
	}
	nodeIndex := *ch.Target.Node
	if int(nodeIndex) >= len(b.doc.Nodes) {
		return errors.Wrapf(gltfutil.ErrInvalidReference, "node %d", nodeIndex)
	}
	node, ok := b.nodes[nodeIndex]
	if !ok {
		// not in the selected scene
		return nil
	}
	sampler := anim.Samplers[*ch.Sampler]
	if sampler.Input == nil || sampler.Output == nil {
		return errors.Wrap(gltfutil.ErrInvalidReference, "sampler has no input or output")
	}

	times, duration, err := b.keyTimes(*sampler.Input)
	if err != nil {
		return err
	}
	output, err := b.buffers.ReadAccessor(*sampler.Output)
	if err != nil {
		return errors.Wrap(err, "output")
	}
	if sampler.Interpolation == gltf.InterpolationCubicSpline {
		if output, err = cubicSplineValues(output, len(times)); err != nil {
			return err
		}
	}
	outAcr := b.doc.Accessors[*sampler.Output]
	interpolation := interpolationName(sampler.Interpolation)

	if ch.Target.Path == gltf.TRSWeights {
		paths := b.weightPaths[nodeIndex]
		if len(paths) == 0 {
			return errors.Wrapf(ErrNoMorphTargets, "node %d", nodeIndex)
		}
		values := gltfutil.Float32s(output, outAcr.Normalized)
		if len(values) != len(paths)*len(times) {
			return errors.Wrapf(ErrChannelDataCountMismatch, "%d values, expected %d (%d targets x %d keys)",
				len(values), len(paths)*len(times), len(paths), len(times))
		}
		g := b.group(nodeIndex, node)
		g.AddKey("weights")
		for pi := range paths {
			path := paths[pi]
			w := make([]float32, len(times))
			for k := range w {
				w[k] = values[k*len(paths)+pi]
			}
			g.Tracks = append(g.Tracks, &scene.KeyframeTrack{
				Name:          anim.Name,
				KeyPath:       path.String(),
				MorphPath:     &path,
				KeyTimes:      times,
				Values:        w,
				Interpolation: interpolation,
				Duration:      duration,
				RepeatCount:   scene.RepeatForever,
			})
		}
		g.Duration = duration
		return nil
	}

	keyPath, ok := trsKeyPaths[ch.Target.Path]
	if !ok {
		return errors.Errorf("unsupported target path %v", ch.Target.Path)
	}
	if n := gltfutil.ElementCount(output); n != len(times) {
		return errors.Wrapf(ErrChannelDataCountMismatch, "%d values for %d keys", n, len(times))
	}
	components := 3
	if ch.Target.Path == gltf.TRSRotation {
		components = 4
	}
	g := b.group(nodeIndex, node)
	g.AddKey(keyPath)
	g.Tracks = append(g.Tracks, &scene.KeyframeTrack{
		Name:          anim.Name,
		KeyPath:       keyPath,
		KeyTimes:      times,
		Values:        floatVectors(output, outAcr.Normalized, components),
		Interpolation: interpolation,
		Duration:      duration,
		RepeatCount:   scene.RepeatForever,
	})
	if duration > b.maxDuration {
		b.maxDuration = duration
	}
	g.Duration = b.maxDuration
	return nil
}

func interpolationName(i gltf.Interpolation) string {
	switch i {
	case gltf.InterpolationStep:
		return "STEP"
	case gltf.InterpolationCubicSpline:
		return "CUBICSPLINE"
	default:
		return "LINEAR"
	}
}
