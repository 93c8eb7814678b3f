package geom

// Cube face indices.
const (
	FaceRight = iota
	FaceLeft
	FaceTop
	FaceBottom
	FaceFront
	FaceBack

	faceCount
)

// vec3 is a 3-D point or direction.
type vec3 struct {
	X, Y, Z float64
}

// faceBasis describes one cube face: the corner at (u,v)=(0,0) and the
// two edge vectors spanning the face. Edge vectors have magnitude 2 so
// that u,v in [0,1] cover the full face of the [-1,1]³ cube.
type faceBasis struct {
	p, ex, ey vec3
}

// faceTable orients the faces so that u increases along the
// front-right-back-left ring and v increases upward. The same table
// serves the forward projection (face point from u,v) and the inverse
// (u,v from a direction), which keeps matching layouts exact inverses
// of each other.
var faceTable = [faceCount]faceBasis{
	FaceRight:  {p: vec3{1, -1, 1}, ex: vec3{0, 0, -2}, ey: vec3{0, 2, 0}},
	FaceLeft:   {p: vec3{-1, -1, -1}, ex: vec3{0, 0, 2}, ey: vec3{0, 2, 0}},
	FaceTop:    {p: vec3{-1, 1, 1}, ex: vec3{2, 0, 0}, ey: vec3{0, 0, -2}},
	FaceBottom: {p: vec3{-1, -1, -1}, ex: vec3{2, 0, 0}, ey: vec3{0, 0, 2}},
	FaceFront:  {p: vec3{-1, -1, 1}, ex: vec3{2, 0, 0}, ey: vec3{0, 2, 0}},
	FaceBack:   {p: vec3{1, -1, -1}, ex: vec3{-2, 0, 0}, ey: vec3{0, 2, 0}},
}

// planePerm maps a layout slot of the PLANE_* variants to the world
// face stored there: the front face comes first, then the side ring,
// poles, and back.
var planePerm = [faceCount]int{FaceFront, FaceRight, FaceLeft, FaceTop, FaceBottom, FaceBack}

// planePermInv is the inverse of planePerm: world face → layout slot.
var planePermInv = [faceCount]int{1, 2, 3, 4, 0, 5}

// facePoint returns the point on the cube surface for (face, u, v).
func facePoint(face int, u, v float64) vec3 {
	b := &faceTable[face]
	return vec3{
		X: b.p.X + b.ex.X*u + b.ey.X*v,
		Y: b.p.Y + b.ex.Y*u + b.ey.Y*v,
		Z: b.p.Z + b.ex.Z*u + b.ey.Z*v,
	}
}

// faceFromDir selects the cube face a direction passes through: the
// dominant axis wins.
func faceFromDir(t vec3) int {
	ax, ay, az := t.X, t.Y, t.Z
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	if az < 0 {
		az = -az
	}
	switch {
	case az >= ax && az >= ay:
		if t.Z >= 0 {
			return FaceFront
		}
		return FaceBack
	case ax >= ay:
		if t.X >= 0 {
			return FaceRight
		}
		return FaceLeft
	default:
		if t.Y >= 0 {
			return FaceTop
		}
		return FaceBottom
	}
}

// faceUV recovers the intra-face coordinates of the point where the
// direction pierces the given face.
func faceUV(face int, t vec3) (u, v float64) {
	b := &faceTable[face]
	var dom float64
	switch face {
	case FaceRight, FaceLeft:
		dom = t.X
	case FaceTop, FaceBottom:
		dom = t.Y
	default:
		dom = t.Z
	}
	if dom < 0 {
		dom = -dom
	}
	if dom == 0 {
		return 0.5, 0.5
	}
	s := 1 / dom
	fx := t.X*s - b.p.X
	fy := t.Y*s - b.p.Y
	fz := t.Z*s - b.p.Z
	// Edge vectors have squared magnitude 4.
	u = (fx*b.ex.X + fy*b.ex.Y + fz*b.ex.Z) / 4
	v = (fx*b.ey.X + fy*b.ey.Y + fz*b.ey.Z) / 4
	return u, v
}

// cubeRegion maps one axis-aligned rectangle of a layout to a range of
// intra-face coordinates on one face.
type cubeRegion struct {
	x0, x1, y0, y1 float64
	face           int
	u0, u1, v0, v1 float64
}

// cube180Regions partitions the CUBEMAP_180 output rectangle: the
// front hemisphere at full resolution, the back hemisphere packed at
// half dimensions per axis.
var cube180Regions = []cubeRegion{
	{0.0, 0.4, 1.0 / 3, 1, FaceFront, 0, 1, 0, 1},
	{0.4, 0.6, 1.0 / 3, 1, FaceLeft, 0.5, 1, 0, 1},
	{0.6, 0.8, 1.0 / 3, 2.0 / 3, FaceBack, 0, 1, 0, 1},
	{0.8, 1.0, 0, 2.0 / 3, FaceRight, 0, 0.5, 0, 1},
	{0.6, 1.0, 2.0 / 3, 1, FaceTop, 0, 1, 0, 0.5},
	{0.0, 0.1, 0, 1.0 / 3, FaceLeft, 0, 0.5, 0, 1},
	{0.1, 0.2, 0, 1.0 / 3, FaceRight, 0.5, 1, 0, 1},
	{0.2, 0.4, 1.0 / 6, 1.0 / 3, FaceTop, 0, 1, 0.5, 1},
	{0.2, 0.4, 0, 1.0 / 6, FaceBottom, 0, 1, 0, 0.5},
	{0.4, 0.8, 0, 1.0 / 3, FaceBottom, 0, 1, 0.5, 1},
}

// cube180Forward locates (x, y) in the CUBEMAP_180 partition.
func cube180Forward(x, y float64) (face int, u, v float64) {
	for i := range cube180Regions {
		r := &cube180Regions[i]
		if x >= r.x0 && x < r.x1 && y >= r.y0 && y < r.y1 {
			u = r.u0 + (x-r.x0)/(r.x1-r.x0)*(r.u1-r.u0)
			v = r.v0 + (y-r.y0)/(r.y1-r.y0)*(r.v1-r.v0)
			return r.face, u, v
		}
	}
	// Unreachable for x, y in [0,1): the regions tile the unit square.
	return FaceFront, 0.5, 0.5
}

// spanContains reports whether val falls in [lo, hi), treating an
// upper bound of 1 inclusively so clamped coordinates stay addressable.
func spanContains(lo, hi, val float64) bool {
	if val < lo {
		return false
	}
	if val < hi {
		return true
	}
	return hi == 1 && val == 1
}

// cube180Inverse places (face, u, v) back into the CUBEMAP_180
// rectangle.
func cube180Inverse(face int, u, v float64) (x, y float64) {
	for i := range cube180Regions {
		r := &cube180Regions[i]
		if r.face != face || !spanContains(r.u0, r.u1, u) || !spanContains(r.v0, r.v1, v) {
			continue
		}
		x = r.x0 + (u-r.u0)/(r.u1-r.u0)*(r.x1-r.x0)
		y = r.y0 + (v-r.v0)/(r.v1-r.v0)*(r.y1-r.y0)
		return x, y
	}
	return 0, 0
}

// cubeForward converts a layout coordinate (inverted-y space) into
// (face, u, v) for any cubemap-family layout.
func cubeForward(layout Layout, x, y float64) (face int, u, v float64) {
	switch layout {
	case LayoutCubemap, LayoutPlaneCubemap:
		face = int(x * 6)
		if face > 5 {
			face = 5
		}
		u = x*6 - float64(face)
		v = y
	case LayoutCubemap32, LayoutPlaneCubemap32:
		hface := int(x * 3)
		if hface > 2 {
			hface = 2
		}
		vface := int(y * 2)
		if vface > 1 {
			vface = 1
		}
		face = hface + (1-vface)*3
		u = x*3 - float64(hface)
		v = y*2 - float64(vface)
	case LayoutCubemap180, LayoutPlanePolesCubemap:
		face, u, v = cube180Forward(x, y)
	}
	if isPlaneLayout(layout) {
		face = planePerm[face]
	}
	return face, u, v
}

// cubeInverse converts (face, u, v) into a layout coordinate
// (inverted-y space) for any cubemap-family layout.
func cubeInverse(layout Layout, face int, u, v float64) (x, y float64) {
	if isPlaneLayout(layout) {
		face = planePermInv[face]
	}
	switch layout {
	case LayoutCubemap, LayoutPlaneCubemap:
		return (float64(face) + u) / 6, v
	case LayoutCubemap32, LayoutPlaneCubemap32:
		hface := face % 3
		vface := 1 - face/3
		return (float64(hface) + u) / 3, (float64(vface) + v) / 2
	case LayoutCubemap180, LayoutPlanePolesCubemap:
		return cube180Inverse(face, u, v)
	}
	return 0, 0
}

func isPlaneLayout(layout Layout) bool {
	switch layout {
	case LayoutPlaneCubemap, LayoutPlaneCubemap32, LayoutPlanePolesCubemap:
		return true
	}
	return false
}
