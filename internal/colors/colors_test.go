package colors

import (
	"image"
	"image/color"
	"testing"
)

func TestParse_Hex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RGB
		wantErr bool
	}{
		{"six digit with hash", "#ff8000", RGB{255, 128, 0}, false},
		{"six digit no hash", "ff8000", RGB{255, 128, 0}, false},
		{"uppercase", "#FF8000", RGB{255, 128, 0}, false},
		{"three digit doubles nibbles", "#f80", RGB{255, 136, 0}, false},
		{"three digit no hash", "abc", RGB{170, 187, 204}, false},
		{"white", "#ffffff", RGB{255, 255, 255}, false},
		{"black", "#000000", RGB{0, 0, 0}, false},
		{"whitespace trimmed", "  #ff8000  ", RGB{255, 128, 0}, false},
		{"wrong length", "#ff80", RGB{}, true},
		{"non hex chars", "#gg8000", RGB{}, true},
		{"empty", "", RGB{}, true},
		{"rgb string as hex", "rgb(1,2,3)", RGB{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, FormatHex)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_RGB(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RGB
		wantErr bool
	}{
		{"functional form", "rgb(255, 128, 0)", RGB{255, 128, 0}, false},
		{"bare triple", "255,128,0", RGB{255, 128, 0}, false},
		{"extra spacing", "rgb( 12 , 34 , 56 )", RGB{12, 34, 56}, false},
		{"zeroes", "0,0,0", RGB{0, 0, 0}, false},
		{"max values", "255,255,255", RGB{255, 255, 255}, false},
		{"out of range", "rgb(256, 0, 0)", RGB{}, true},
		{"too few components", "255,128", RGB{}, true},
		{"negative", "rgb(-1, 0, 0)", RGB{}, true},
		{"hex as rgb", "#ff8000", RGB{}, true},
		{"empty", "", RGB{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, FormatRGB)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_UnknownFormat(t *testing.T) {
	if _, err := Parse("#ffffff", Format("hsl")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestBrightness(t *testing.T) {
	tests := []struct {
		name string
		c    RGB
		want float64
	}{
		{"white", RGB{255, 255, 255}, 1.0},
		{"black", RGB{0, 0, 0}, 0.0},
		{"pure red", RGB{255, 0, 0}, 0.299},
		{"pure green", RGB{0, 255, 0}, 0.587},
		{"pure blue", RGB{0, 0, 255}, 0.114},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.c.Brightness()
			if diff := got - tt.want; diff > 0.0001 || diff < -0.0001 {
				t.Errorf("Brightness() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDark(t *testing.T) {
	if (RGB{255, 255, 255}).IsDark() {
		t.Error("white should not be dark")
	}
	if !(RGB{0, 0, 0}).IsDark() {
		t.Error("black should be dark")
	}
	if !(RGB{0, 0, 255}).IsDark() {
		t.Error("pure blue should be dark")
	}
	if (RGB{0, 255, 0}).IsDark() {
		t.Error("pure green should not be dark")
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		c    RGB
		want string
	}{
		{RGB{255, 128, 0}, "#ff8000"},
		{RGB{0, 0, 0}, "#000000"},
		{RGB{255, 255, 255}, "#ffffff"},
		{RGB{1, 2, 3}, "#010203"},
	}
	for _, tt := range tests {
		if got := tt.c.Hex(); got != tt.want {
			t.Errorf("%v.Hex() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDominantColors_SolidImage(t *testing.T) {
	img := solidImage(32, 32, color.RGBA{200, 50, 10, 255})

	got := DominantColors(img, 3)
	if len(got) == 0 {
		t.Fatal("expected at least one color")
	}
	if got[0] != (RGB{200, 50, 10}) {
		t.Errorf("dominant color = %v, want {200 50 10}", got[0])
	}
}

func TestDominantColors_TwoColorImage(t *testing.T) {
	// Left two thirds red, right third blue. Red must rank first.
	img := image.NewRGBA(image.Rect(0, 0, 30, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 30; x++ {
			if x < 20 {
				img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}

	got := DominantColors(img, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 colors, got %d", len(got))
	}
	if got[0] != (RGB{255, 0, 0}) {
		t.Errorf("largest cluster = %v, want red first", got[0])
	}
	if got[1] != (RGB{0, 0, 255}) {
		t.Errorf("second cluster = %v, want blue", got[1])
	}
}

func TestDominantColors_ClampsK(t *testing.T) {
	img := solidImage(8, 8, color.RGBA{10, 20, 30, 255})

	if got := DominantColors(img, 0); len(got) != 1 {
		t.Errorf("k=0 should clamp to 1, got %d colors", len(got))
	}
	if got := DominantColors(img, 50); len(got) > 10 {
		t.Errorf("k=50 should clamp to 10, got %d colors", len(got))
	}
}

func TestDominantColors_NilImage(t *testing.T) {
	if got := DominantColors(nil, 3); got != nil {
		t.Errorf("expected nil for nil image, got %v", got)
	}
}

func TestDominantColors_Deterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 12), uint8(y * 12), 100, 255})
		}
	}

	a := DominantColors(img, 4)
	b := DominantColors(img, 4)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("run mismatch at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
