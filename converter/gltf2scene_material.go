package converter

import (
	"image"

	"github.com/binzume/gltfscene/gltfutil"
	"github.com/binzume/gltfscene/scene"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func (b *sceneBuilder) material(index *uint32) *scene.Material {
	if index != nil && int(*index) >= len(b.doc.Materials) {
		b.warn(errors.Wrapf(gltfutil.ErrInvalidReference, "material %d", *index))
	}
	if index == nil || int(*index) >= len(b.doc.Materials) {
		if b.defaultMaterial == nil {
			b.defaultMaterial = scene.NewMaterial("default")
			b.defaultMaterial.Diffuse.Color = &[4]float32{1, 1, 1, 1}
		}
		return b.defaultMaterial
	}
	if mat, ok := b.materials[*index]; ok {
		return mat
	}
	mat := b.convertMaterial(b.doc.Materials[*index])
	b.materials[*index] = mat
	return mat
}

func (b *sceneBuilder) convertMaterial(m *gltf.Material) *scene.Material {
	mat := scene.NewMaterial(normalizeName(m.Name))
	mat.DoubleSided = m.DoubleSided
	mat.AlphaCutoff = m.AlphaCutoffOrDefault()
	switch m.AlphaMode {
	case gltf.AlphaMask:
		mat.AlphaMode = scene.AlphaMask
	case gltf.AlphaBlend:
		mat.AlphaMode = scene.AlphaBlend
	}

	mat.Diffuse.Color = &[4]float32{1, 1, 1, 1}
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		mat.LightingModel = scene.LightingPhysicallyBased
		if t := pbr.BaseColorTexture; t != nil {
			mat.Diffuse.Color = nil
			b.bindTexture(mat.Diffuse, t.Index, t.TexCoord)
		} else {
			col := pbr.BaseColorFactorOrDefault()
			mat.Diffuse.Color = &col
		}
		if t := pbr.MetallicRoughnessTexture; t != nil {
			b.bindMetallicRoughness(mat, t)
		} else {
			mat.Metalness.Intensity = pbr.MetallicFactorOrDefault()
			mat.Roughness.Intensity = pbr.RoughnessFactorOrDefault()
		}
	}

	if t := m.NormalTexture; t != nil && t.Index != nil {
		b.bindTexture(mat.Normal, *t.Index, t.TexCoord)
		if t.Scale != nil {
			mat.Normal.Intensity = *t.Scale
		}
	}
	if t := m.OcclusionTexture; t != nil && t.Index != nil {
		b.bindTexture(mat.AmbientOcclusion, *t.Index, t.TexCoord)
		if t.Strength != nil {
			mat.AmbientOcclusion.Intensity = *t.Strength
		}
	}
	if t := m.EmissiveTexture; t != nil {
		b.bindTexture(mat.Emission, t.Index, t.TexCoord)
	} else {
		e := m.EmissiveFactor
		mat.Emission.Color = &[4]float32{e[0], e[1], e[2], 1}
	}
	return mat
}

// bindMetallicRoughness binds the packed texture to metalness (B) and roughness (G).
func (b *sceneBuilder) bindMetallicRoughness(mat *scene.Material, t *gltf.TextureInfo) {
	img := b.bindTexture(mat.Metalness, t.Index, t.TexCoord)
	*mat.Roughness = *mat.Metalness
	mat.Metalness.TextureComponent = scene.ComponentBlue
	mat.Roughness.TextureComponent = scene.ComponentGreen
	if !b.options.SplitMetallicRoughness || img == nil {
		return
	}

	dec := b.options.ImageDecoder
	if r, err := dec.Channel(img, 1); err != nil {
		b.warn(errors.Wrapf(err, "texture %d roughness", t.Index))
	} else {
		mat.Roughness.Image = r
		mat.Roughness.TextureComponent = scene.ComponentAll
	}
	if m, err := dec.Channel(img, 2); err != nil {
		b.warn(errors.Wrapf(err, "texture %d metalness", t.Index))
	} else {
		mat.Metalness.Image = m
		mat.Metalness.TextureComponent = scene.ComponentAll
	}
}

// bindTexture sets the texture of prop and returns the decoded image, or nil.
func (b *sceneBuilder) bindTexture(prop *scene.MaterialProperty, index, texCoord uint32) image.Image {
	if int(index) >= len(b.doc.Textures) {
		b.warn(errors.Wrapf(gltfutil.ErrInvalidReference, "texture %d", index))
		return nil
	}
	tex := b.doc.Textures[index]
	prop.TextureIndex = int(index)
	prop.TexCoord = int(texCoord)
	b.applySampler(prop, tex.Sampler)
	if tex.Source == nil {
		return nil
	}
	img, err := b.image(*tex.Source)
	if err != nil {
		b.warn(errors.Wrapf(err, "texture %d", index))
		return nil
	}
	prop.Image = img
	return img
}

func wrapMode(w gltf.WrappingMode) scene.WrapMode {
	switch w {
	case gltf.WrapClampToEdge:
		return scene.WrapClamp
	case gltf.WrapMirroredRepeat:
		return scene.WrapMirror
	default:
		return scene.WrapRepeat
	}
}

func (b *sceneBuilder) applySampler(prop *scene.MaterialProperty, index *uint32) {
	prop.WrapS, prop.WrapT = scene.WrapRepeat, scene.WrapRepeat
	prop.MagFilter, prop.MinFilter, prop.MipFilter = scene.FilterNone, scene.FilterNone, scene.FilterNone
	if index == nil || int(*index) >= len(b.doc.Samplers) {
		return
	}
	s := b.doc.Samplers[*index]
	prop.WrapS = wrapMode(s.WrapS)
	prop.WrapT = wrapMode(s.WrapT)

	switch s.MagFilter {
	case gltf.MagNearest:
		prop.MagFilter = scene.FilterNearest
	case gltf.MagLinear:
		prop.MagFilter = scene.FilterLinear
	}

	switch s.MinFilter {
	case gltf.MinNearest:
		prop.MinFilter = scene.FilterNearest
	case gltf.MinLinear:
		prop.MinFilter = scene.FilterLinear
	case gltf.MinNearestMipMapNearest:
		prop.MinFilter, prop.MipFilter = scene.FilterNearest, scene.FilterNearest
	case gltf.MinLinearMipMapNearest:
		prop.MinFilter, prop.MipFilter = scene.FilterLinear, scene.FilterNearest
	case gltf.MinNearestMipMapLinear:
		prop.MinFilter, prop.MipFilter = scene.FilterNearest, scene.FilterLinear
	case gltf.MinLinearMipMapLinear:
		prop.MinFilter, prop.MipFilter = scene.FilterLinear, scene.FilterLinear
	}
}

// image loads and decodes an image once per conversion.
func (b *sceneBuilder) image(index uint32) (image.Image, error) {
	if e, ok := b.images[index]; ok {
		return e.img, e.err
	}
	e := &imageEntry{}
	b.images[index] = e
	if int(index) >= len(b.doc.Images) {
		e.err = errors.Wrapf(gltfutil.ErrInvalidReference, "image %d", index)
		return nil, e.err
	}

	src := b.doc.Images[index]
	var data []byte
	var err error
	if src.BufferView != nil {
		data, err = b.buffers.ResolveBufferView(*src.BufferView)
	} else if src.URI != "" {
		data, err = b.options.Loader.Load(src.URI, b.dir)
		if err != nil {
			err = errors.Wrapf(gltfutil.ErrResourceUnavailable, "%v", err)
		}
	} else {
		err = errors.Wrap(gltfutil.ErrResourceUnavailable, "no uri or bufferView")
	}
	if err == nil {
		e.img, err = b.options.ImageDecoder.Decode(data)
	}
	if err != nil {
		e.err = errors.Wrapf(err, "image %d", index)
	}
	return e.img, e.err
}
