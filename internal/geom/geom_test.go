package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

// identityConfig returns a config mapping a layout onto itself with no
// rotation or stereo.
func identityConfig(l Layout) Config {
	return Config{
		InputLayout:    l,
		OutputLayout:   l,
		ExpandCoef:     1,
		MainPlaneRatio: 0.5,
		HFov:           90,
		VFov:           90,
	}
}

// --- identity round trips ---

func TestMapIdentity_CubemapFamilies(t *testing.T) {
	layouts := []Layout{
		LayoutCubemap,
		LayoutCubemap32,
		LayoutCubemap180,
		LayoutPlaneCubemap,
		LayoutPlaneCubemap32,
		LayoutPlanePolesCubemap,
	}
	for _, l := range layouts {
		m := NewMapper(identityConfig(l))
		// Pixel centers of a 48x36 plane stay off every partition
		// boundary.
		for i := 0; i < 36; i++ {
			for j := 0; j < 48; j++ {
				x := (float64(j) + 0.5) / 48
				y := (float64(i) + 0.5) / 36
				xin, yin, right := m.Map(x, y)
				if right {
					t.Fatalf("layout %d: mono map flagged right eye", l)
				}
				if math.Abs(xin-x) > 1e-6 || math.Abs(yin-y) > 1e-6 {
					t.Fatalf("layout %d: map(%g,%g) = (%g,%g), want identity", l, x, y, xin, yin)
				}
			}
		}
	}
}

func TestMapIdentity_PlanePolesMainStrip(t *testing.T) {
	m := NewMapper(identityConfig(LayoutPlanePoles))
	for i := 0; i < 32; i++ {
		for j := 0; j < 16; j++ {
			// Main strip occupies x < 0.5 at the default ratio.
			x := (float64(j) + 0.5) / 32
			y := (float64(i) + 0.5) / 32
			xin, yin, _ := m.Map(x, y)
			if math.Abs(xin-x) > 1e-9 || math.Abs(yin-y) > 1e-9 {
				t.Fatalf("map(%g,%g) = (%g,%g), want identity", x, y, xin, yin)
			}
		}
	}
}

func TestMapIdentity_PlanePolesDiscs(t *testing.T) {
	m := NewMapper(identityConfig(LayoutPlanePoles))
	points := [][2]float64{
		{0.75, 0.125}, // bottom disc center
		{0.8, 0.15},
		{0.7, 0.1},
		{0.75, 0.2},
		{0.75, 0.875}, // top disc center
		{0.8, 0.9},
		{0.7, 0.85},
		{0.75, 0.95},
	}
	for _, p := range points {
		xin, yin, _ := m.Map(p[0], p[1])
		if math.Abs(xin-p[0]) > 1e-9 || math.Abs(yin-p[1]) > 1e-9 {
			t.Fatalf("map(%g,%g) = (%g,%g), want identity", p[0], p[1], xin, yin)
		}
	}
}

func TestMapIdentity_PlanePoles6(t *testing.T) {
	m := NewMapper(identityConfig(LayoutPlanePoles6))
	// Main band strips plus interior points of the two discs.
	points := [][2]float64{
		{0.1, 0.3}, {0.3, 0.7}, {0.6, 0.5}, {0.05, 0.05}, {0.65, 0.95},
		{4.5 / 6, 0.5}, {4.55 / 6, 0.55}, // top disc
		{5.5 / 6, 0.5}, {5.45 / 6, 0.45}, // bottom disc
	}
	for _, p := range points {
		xin, yin, _ := m.Map(p[0], p[1])
		if math.Abs(xin-p[0]) > 1e-9 || math.Abs(yin-p[1]) > 1e-9 {
			t.Fatalf("map(%g,%g) = (%g,%g), want identity", p[0], p[1], xin, yin)
		}
	}
}

func TestMapIdentity_WithExpansion(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.ExpandCoef = 1.25
	m := NewMapper(cfg)
	for i := 0; i < 24; i++ {
		for j := 0; j < 36; j++ {
			x := (float64(j) + 0.5) / 36
			y := (float64(i) + 0.5) / 24
			xin, yin, _ := m.Map(x, y)
			// Inside each face the expansion and its reciprocal cancel.
			// In the expanded margin the sample lies past the face edge,
			// on a neighbouring face, and the input side reads it where
			// that face shows the same direction.
			_, u, v := cubeForward(LayoutCubemap, x, 1-y)
			if math.Abs(u-0.5)*cfg.ExpandCoef <= 0.5 && math.Abs(v-0.5)*cfg.ExpandCoef <= 0.5 {
				if math.Abs(xin-x) > 1e-6 || math.Abs(yin-y) > 1e-6 {
					t.Fatalf("expanded map(%g,%g) = (%g,%g), want identity", x, y, xin, yin)
				}
				continue
			}
			want := dirFromEquirect(m.outputToEquirect(x, y))
			got := dirFromEquirect(m.outputToEquirect(xin, yin))
			if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 || math.Abs(got.Z-want.Z) > 1e-6 {
				t.Fatalf("expanded margin map(%g,%g) = (%g,%g) shows direction %v, want %v", x, y, xin, yin, got, want)
			}
		}
	}
}

// --- face placement ---

func TestCubemapToCubemap32FacePlacement(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.OutputLayout = LayoutCubemap32
	m := NewMapper(cfg)
	// vface counts rows in the inverted-y space of the cubemap
	// layouts: vface 1 is the top row of the frame.
	for vface := 0; vface < 2; vface++ {
		for hface := 0; hface < 3; hface++ {
			face := hface + (1-vface)*3
			x := (float64(hface) + 0.5) / 3
			y := 1 - (float64(vface)+0.5)/2
			xin, yin, _ := m.Map(x, y)
			wantX := (float64(face) + 0.5) / 6
			if math.Abs(xin-wantX) > 1e-9 || math.Abs(yin-0.5) > 1e-9 {
				t.Errorf("cell (%d,%d): got (%g,%g), want (%g,0.5)", hface, vface, xin, yin, wantX)
			}
		}
	}
}

func TestFlatFixedCenterSamplesFrontFace(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.OutputLayout = LayoutFlatFixed
	m := NewMapper(cfg)
	xin, yin, _ := m.Map(0.5, 0.5)
	wantX := (float64(FaceFront) + 0.5) / 6
	if math.Abs(xin-wantX) > 1e-9 || math.Abs(yin-0.5) > 1e-9 {
		t.Fatalf("flat center = (%g,%g), want (%g,0.5)", xin, yin, wantX)
	}
}

func TestFlatFixedPoleReflection(t *testing.T) {
	m := NewMapper(Config{
		OutputLayout: LayoutFlatFixed,
		HFov:         90,
		VFov:         90,
		Pitch:        90,
		ExpandCoef:   1,
	})
	xe, ye := m.flatToEquirect(0.5, 0)
	if !near(ye, 0.25) {
		t.Errorf("reflected latitude = %g, want 0.25", ye)
	}
	if !near(xe, 0) && !near(xe, 1) {
		t.Errorf("reflected longitude = %g, want 0 (mod 1)", xe)
	}
}

// --- rotation ---

func TestYawMovesFrontToRight(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.Yaw = 90
	m := NewMapper(cfg)
	// Front face center of the 6-strip layout.
	x := (float64(FaceFront) + 0.5) / 6
	xin, yin, _ := m.Map(x, 0.5)
	wantX := (float64(FaceRight) + 0.5) / 6
	if math.Abs(xin-wantX) > 1e-9 || math.Abs(yin-0.5) > 1e-9 {
		t.Fatalf("yaw 90 front center = (%g,%g), want (%g,0.5)", xin, yin, wantX)
	}
}

func TestPitchMovesFrontToTop(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.Pitch = 90
	m := NewMapper(cfg)
	x := (float64(FaceFront) + 0.5) / 6
	xin, yin, _ := m.Map(x, 0.5)
	wantX := (float64(FaceTop) + 0.5) / 6
	if math.Abs(xin-wantX) > 1e-9 || math.Abs(yin-0.5) > 1e-9 {
		t.Fatalf("pitch 90 front center = (%g,%g), want (%g,0.5)", xin, yin, wantX)
	}
}

func TestRotationTerms(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.Yaw = 30
	cfg.Pitch = 40
	m := NewMapper(cfg)
	q := vec3{X: 0.3, Y: -0.4, Z: 0.8}
	got := m.rotate(q)
	sy, cy := math.Sin(30*math.Pi/180), math.Cos(30*math.Pi/180)
	sp, cp := math.Sin(40*math.Pi/180), math.Cos(40*math.Pi/180)
	want := vec3{
		X: q.X*cy - q.Y*sy*sp + q.Z*sy*cp,
		Y: q.Y*cp + q.Z*sp,
		Z: -q.X*sy - q.Y*cy*sp + q.Z*cy*cp,
	}
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Z, want.Z) {
		t.Fatalf("rotate(%v) = %v, want %v", q, got, want)
	}
}

// --- stereo ---

func TestStereoTBIdentity(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.Stereo = StereoTB
	m := NewMapper(cfg)

	xin, yin, right := m.Map(0.25, 0.25)
	if right || math.Abs(xin-0.25) > 1e-6 || math.Abs(yin-0.25) > 1e-6 {
		t.Fatalf("top half: got (%g,%g,right=%v), want (0.25,0.25,false)", xin, yin, right)
	}
	xin, yin, right = m.Map(0.25, 0.75)
	if !right || math.Abs(xin-0.25) > 1e-6 || math.Abs(yin-0.75) > 1e-6 {
		t.Fatalf("bottom half: got (%g,%g,right=%v), want (0.25,0.75,true)", xin, yin, right)
	}
}

func TestStereoTBVFlip(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.Stereo = StereoTB
	cfg.VFlip = true
	m := NewMapper(cfg)
	// The right eye is mirrored inside its half: y → 1.5−y.
	xin, yin, right := m.Map(0.25, 0.6)
	if !right || math.Abs(xin-0.25) > 1e-6 || math.Abs(yin-0.9) > 1e-6 {
		t.Fatalf("vflip bottom: got (%g,%g,right=%v), want (0.25,0.9,true)", xin, yin, right)
	}
}

func TestStereoLRRestack(t *testing.T) {
	cfg := identityConfig(LayoutCubemap)
	cfg.Stereo = StereoLR
	m := NewMapper(cfg)
	// Output bottom half = right eye = right half of the LR input.
	xin, yin, right := m.Map(0.5, 0.75)
	if !right {
		t.Fatal("bottom half not flagged as right eye")
	}
	if math.Abs(xin-0.75) > 1e-6 || math.Abs(yin-0.5) > 1e-6 {
		t.Fatalf("lr restack: got (%g,%g), want (0.75,0.5)", xin, yin)
	}
}

// --- partition internals ---

func TestCube180RegionsTileUnitSquare(t *testing.T) {
	total := 0.0
	for i := range cube180Regions {
		r := &cube180Regions[i]
		total += (r.x1 - r.x0) * (r.y1 - r.y0)
	}
	if math.Abs(total-1) > 1e-12 {
		t.Fatalf("region areas sum to %g, want 1", total)
	}
	for i := 0; i < 101; i++ {
		for j := 0; j < 101; j++ {
			x := float64(j) / 101
			y := float64(i) / 101
			face, u, v := cube180Forward(x, y)
			if face < 0 || face >= faceCount {
				t.Fatalf("cube180Forward(%g,%g) face = %d", x, y, face)
			}
			if u < -eps || u > 1+eps || v < -eps || v > 1+eps {
				t.Fatalf("cube180Forward(%g,%g) uv = (%g,%g)", x, y, u, v)
			}
			gx, gy := cube180Inverse(face, u, v)
			if math.Abs(gx-x) > 1e-12 || math.Abs(gy-y) > 1e-12 {
				t.Fatalf("cube180 roundtrip (%g,%g) -> (%g,%g)", x, y, gx, gy)
			}
		}
	}
}

func TestCube180FrontHemisphereArea(t *testing.T) {
	// The back hemisphere packs at half dimensions per axis, leaving
	// roughly three quarters of the output for the front hemisphere.
	const n = 400
	front := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := (float64(j) + 0.5) / n
			y := (float64(i) + 0.5) / n
			face, u, v := cube180Forward(x, y)
			q := facePoint(face, u, v)
			if q.Z > 0 {
				front++
			}
		}
	}
	frac := float64(front) / (n * n)
	if frac < 0.7 || frac > 0.85 {
		t.Fatalf("front hemisphere fraction = %g, want ~0.75-0.8", frac)
	}
}

func TestFaceUVRoundtrip(t *testing.T) {
	for face := 0; face < faceCount; face++ {
		for _, u := range []float64{0.1, 0.37, 0.5, 0.82} {
			for _, v := range []float64{0.08, 0.5, 0.73, 0.94} {
				q := facePoint(face, u, v)
				gotFace := faceFromDir(q)
				if gotFace != face {
					t.Fatalf("face %d (%g,%g): faceFromDir = %d", face, u, v, gotFace)
				}
				gu, gv := faceUV(face, q)
				if !near(gu, u) || !near(gv, v) {
					t.Fatalf("face %d: uv roundtrip (%g,%g) -> (%g,%g)", face, u, v, gu, gv)
				}
			}
		}
	}
}

func TestEquirectDirRoundtrip(t *testing.T) {
	for i := 1; i < 20; i++ {
		for j := 0; j < 20; j++ {
			xe := (float64(j) + 0.5) / 20
			ye := float64(i) / 20
			d := dirFromEquirect(xe, ye)
			gx, gy := equirectFromDir(d)
			if !near(gx, xe) || !near(gy, ye) {
				t.Fatalf("equirect roundtrip (%g,%g) -> (%g,%g)", xe, ye, gx, gy)
			}
		}
	}
}

func TestPlanePermIsInverse(t *testing.T) {
	for slot, face := range planePerm {
		if planePermInv[face] != slot {
			t.Fatalf("planePermInv[%d] = %d, want %d", face, planePermInv[face], slot)
		}
	}
}
