package framegraph

// CameraParams is the per-view uniform block uploaded by Pass (spec.md
// §4.8 "uploads per-view uniform block at slot 1"). OriginHigh/OriginLow
// implement the shifted frustum: the camera position is split into a
// float32 high part and a float32 remainder so the view matrix can be
// built relative to the camera (eliminating large-coordinate precision
// loss) while world positions still carry a double-precision origin.
// Matrices follow the teacher's column-major, flat []float32 convention
// (common.Perspective/common.LookAt/common.Mul4).
type CameraParams struct {
	View       [16]float32
	Proj       [16]float32
	ViewProj   [16]float32
	OriginHigh [3]float32
	OriginLow  [3]float32

	Jitter  [2]float32 // sub-pixel jitter offset, spec.md §4.8 enablePixelJitter
	Near    float32
	Far     float32
	FovY    float32
	Aspect  float32
}

// ShiftOrigin splits a double-precision world position into the
// high/low float32 pair CameraParams carries, so shaders reconstruct
// camera-relative positions without catastrophic cancellation far from
// the world origin.
func ShiftOrigin(x, y, z float64) (high [3]float32, low [3]float32) {
	high = [3]float32{float32(x), float32(y), float32(z)}
	low = [3]float32{
		float32(x - float64(high[0])),
		float32(y - float64(high[1])),
		float32(z - float64(high[2])),
	}
	return high, low
}
