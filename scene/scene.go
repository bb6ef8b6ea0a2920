package scene

import (
	"fmt"
	"io"
	"strings"

	"github.com/binzume/gltfscene/geom"
)

type Scene struct {
	Name string
	Root *Node

	// Nodes lists the converted glTF nodes in depth-first order.
	Nodes []*Node

	// Warnings collects failures of sub-conversions (primitives, textures,
	// animation channels) that were skipped.
	Warnings []error
}

type Node struct {
	Name string

	// Index is the source glTF node index, or -1 for generated nodes
	// (scene root and mesh primitives).
	Index int

	Transform geom.Matrix4

	Geometry *Geometry
	Morpher  *Morpher
	Camera   *Camera

	// SkinIndex is recorded only. Skinning is not applied. -1 if absent.
	SkinIndex int

	Children  []*Node
	Animation *AnimationGroup
}

func NewNode(name string, index int) *Node {
	return &Node{Name: name, Index: index, Transform: *geom.NewMatrix4(), SkinIndex: -1}
}

func (n *Node) AddChild(c *Node) {
	n.Children = append(n.Children, c)
}

// Walk visits n and its descendants depth-first. Returning false from f skips the subtree.
func (n *Node) Walk(f func(n *Node, depth int) bool) {
	n.walk(f, 0)
}

func (n *Node) walk(f func(n *Node, depth int) bool, depth int) {
	if !f(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(f, depth+1)
	}
}

// FindByName returns the first node with the given name.
func (s *Scene) FindByName(name string) *Node {
	var found *Node
	if s.Root == nil {
		return nil
	}
	s.Root.Walk(func(n *Node, depth int) bool {
		if found == nil && n.Name == name {
			found = n
		}
		return found == nil
	})
	return found
}

type CameraProjection int

const (
	PerspectiveProjection CameraProjection = iota
	OrthographicProjection
)

type Camera struct {
	Name       string
	Projection CameraProjection

	ZNear float32
	ZFar  float32 // 0: infinite

	// perspective
	YFov        float32 // radians
	FieldOfView float32 // degrees
	AspectRatio float32 // 0: viewport

	// orthographic
	XMag float32
	YMag float32
}

func Dump(w io.Writer, s *Scene) {
	fmt.Fprintln(w, "Scene", s.Name)
	if s.Root == nil {
		return
	}
	s.Root.Walk(func(n *Node, depth int) bool {
		indent := strings.Repeat(" ", depth*2)
		fmt.Fprintf(w, "%s%s (#%d)", indent, n.Name, n.Index)
		if !n.Transform.IsIdentity() {
			p := n.Transform.Position()
			fmt.Fprintf(w, " pos=(%g,%g,%g)", p.X, p.Y, p.Z)
		}
		if n.SkinIndex >= 0 {
			fmt.Fprintf(w, " skin=%d", n.SkinIndex)
		}
		fmt.Fprintln(w)
		if n.Camera != nil {
			fmt.Fprintf(w, "%s - camera %q near=%g far=%g\n", indent, n.Camera.Name, n.Camera.ZNear, n.Camera.ZFar)
		}
		if g := n.Geometry; g != nil {
			for _, src := range g.Sources {
				fmt.Fprintf(w, "%s - source %s %s x%d\n", indent, src.Name, src.Semantic, src.VectorCount)
			}
			for _, e := range g.Elements {
				fmt.Fprintf(w, "%s - element %s x%d\n", indent, e.PrimitiveType, e.PrimitiveCount)
			}
			for _, m := range g.Materials {
				fmt.Fprintf(w, "%s - material %q %s\n", indent, m.Name, m.LightingModel)
			}
		}
		if n.Morpher != nil {
			fmt.Fprintf(w, "%s - morph targets %d\n", indent, len(n.Morpher.Targets))
		}
		if a := n.Animation; a != nil {
			for _, t := range a.Tracks {
				fmt.Fprintf(w, "%s - track %s keys=%d duration=%g\n", indent, t.KeyPath, len(t.KeyTimes), t.Duration)
			}
		}
		return true
	})
	for _, err := range s.Warnings {
		fmt.Fprintln(w, "warning:", err)
	}
}
