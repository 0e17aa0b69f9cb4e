package backend

import (
	"errors"
	"image"
	"slices"
	"testing"
)

// stubDevice satisfies Device for registry tests.
type stubDevice struct {
	Device
	name string
}

func (d stubDevice) Name() string { return d.name }

func withRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = make(map[string]Factory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func TestRegistry(t *testing.T) {
	withRegistry(t)

	Register("b", func() (Device, error) { return stubDevice{name: "b"}, nil })
	Register("a", func() (Device, error) { return stubDevice{name: "a"}, nil })

	if got := Available(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Available() = %v, want [a b]", got)
	}
	if !IsRegistered("a") || IsRegistered("c") {
		t.Error("IsRegistered mismatch")
	}

	d, err := Open("b")
	if err != nil || d.Name() != "b" {
		t.Errorf("Open(b) = %v, %v", d, err)
	}
	if _, err := Open("c"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(c) = %v, want ErrBackendNotAvailable", err)
	}

	Unregister("a")
	if IsRegistered("a") {
		t.Error("Unregister did not remove backend")
	}
}

func TestDefaultPriority(t *testing.T) {
	withRegistry(t)

	Register("zzz", func() (Device, error) { return stubDevice{name: "zzz"}, nil })
	Register(BackendSoftware, func() (Device, error) { return stubDevice{name: BackendSoftware}, nil })
	Register(BackendWGPU, func() (Device, error) { return stubDevice{name: BackendWGPU}, nil })

	d, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if d.Name() != BackendWGPU {
		t.Errorf("Default() = %q, want %q", d.Name(), BackendWGPU)
	}
}

func TestDefaultFallsBack(t *testing.T) {
	withRegistry(t)

	gpuErr := errors.New("no adapter")
	Register(BackendWGPU, func() (Device, error) { return nil, gpuErr })
	Register(BackendSoftware, func() (Device, error) { return stubDevice{name: BackendSoftware}, nil })

	d, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if d.Name() != BackendSoftware {
		t.Errorf("Default() = %q, want %q", d.Name(), BackendSoftware)
	}

	Unregister(BackendSoftware)
	_, err = Default()
	if !errors.Is(err, ErrBackendNotAvailable) || !errors.Is(err, gpuErr) {
		t.Errorf("Default() = %v, want ErrBackendNotAvailable wrapping the factory error", err)
	}
}

func TestDefaultEmpty(t *testing.T) {
	withRegistry(t)
	if _, err := Default(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Default() = %v, want ErrBackendNotAvailable", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustDefault should panic with no backends")
		}
	}()
	MustDefault()
}

func TestCheckCopy(t *testing.T) {
	tests := []struct {
		name   string
		origin image.Point
		size   image.Point
		ok     bool
	}{
		{"full", image.Pt(0, 0), image.Pt(10, 10), true},
		{"corner cell", image.Pt(5, 5), image.Pt(5, 5), true},
		{"empty", image.Pt(3, 3), image.Pt(0, 0), true},
		{"right overflow", image.Pt(6, 0), image.Pt(5, 5), false},
		{"bottom overflow", image.Pt(0, 6), image.Pt(5, 5), false},
		{"negative origin", image.Pt(-1, 0), image.Pt(5, 5), false},
		{"negative size", image.Pt(0, 0), image.Pt(-1, 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCopy(10, 10, tt.origin, tt.size)
			if tt.ok && err != nil {
				t.Errorf("CheckCopy() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrRegionOutOfBounds) {
				t.Errorf("CheckCopy() = %v, want ErrRegionOutOfBounds", err)
			}
		})
	}
}

func TestColorRGBA8(t *testing.T) {
	got := Color{R: 1, G: 0.5, B: 0.5, A: 1}.RGBA8()
	if got != [4]uint8{255, 128, 128, 255} {
		t.Errorf("RGBA8() = %v", got)
	}
	if got := (Color{R: -1, G: 2}).RGBA8(); got != [4]uint8{0, 255, 0, 0} {
		t.Errorf("RGBA8() clamp = %v", got)
	}
}

func TestImageDescriptorValidate(t *testing.T) {
	if err := (ImageDescriptor{Width: 1, Height: 1}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (ImageDescriptor{Width: 0, Height: 1}).Validate(); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("Validate() = %v, want ErrInvalidDescriptor", err)
	}
}

func TestFormatString(t *testing.T) {
	if FormatRGBA8.String() != "RGBA8" || FormatBGRA8.String() != "BGRA8" || Format(9).String() != "Format(9)" {
		t.Error("Format.String mismatch")
	}
}

func TestQuadCoversClipSpace(t *testing.T) {
	var area float32
	for _, tri := range QuadTriangles() {
		a, b, c := tri[0].Pos, tri[1].Pos, tri[2].Pos
		cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
		if cross < 0 {
			cross = -cross
		}
		area += cross / 2
	}
	if area != 4 {
		t.Errorf("quad area = %v, want 4", area)
	}

	for i, v := range QuadVertices {
		for _, p := range v.Pos {
			if p != -1 && p != 1 {
				t.Errorf("vertex %d pos %v not on a clip-space corner", i, v.Pos)
			}
		}
		// u grows with x, v grows as y falls.
		wantU := (v.Pos[0] + 1) / 2
		wantV := (1 - v.Pos[1]) / 2
		if v.UV != [2]float32{wantU, wantV} {
			t.Errorf("vertex %d uv = %v, want [%v %v]", i, v.UV, wantU, wantV)
		}
	}
}
