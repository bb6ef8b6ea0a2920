package scene

import (
	"fmt"
	"math"
)

var RepeatForever = math.Inf(1)

// MorphWeightPath addresses one morph target weight of a primitive child node.
type MorphWeightPath struct {
	Child  int
	Target int
}

func (p MorphWeightPath) String() string {
	return fmt.Sprintf("childNodes[%d].morpher.weights[%d]", p.Child, p.Target)
}

type KeyframeTrack struct {
	Name    string // animation name
	KeyPath string

	// MorphPath is set for morph weight tracks.
	MorphPath *MorphWeightPath

	// KeyTimes are fractions of Duration in [0,1].
	KeyTimes []float32

	// Values is []float32 for weights, otherwise the decoded sampler output
	// (e.g. [][3]float32 for position, [][4]float32 for orientation).
	Values interface{}

	Interpolation string
	Duration      float64 // seconds
	RepeatCount   float64
}

type AnimationGroup struct {
	// Keys lists the target paths registered on the node.
	Keys        []string
	Tracks      []*KeyframeTrack
	Duration    float64
	RepeatCount float64
}

func (g *AnimationGroup) AddKey(key string) {
	for _, k := range g.Keys {
		if k == key {
			return
		}
	}
	g.Keys = append(g.Keys, key)
}

// Track returns the first track with the given key path.
func (g *AnimationGroup) Track(keyPath string) *KeyframeTrack {
	for _, t := range g.Tracks {
		if t.KeyPath == keyPath {
			return t
		}
	}
	return nil
}
