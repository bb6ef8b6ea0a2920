package geom

type Quaternion struct {
	X Element
	Y Element
	Z Element
	W Element
}

func NewQuaternionFromArray(arr [4]Element) *Quaternion {
	return &Quaternion{X: arr[0], Y: arr[1], Z: arr[2], W: arr[3]}
}
