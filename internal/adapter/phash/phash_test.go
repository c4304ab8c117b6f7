package phash

import (
	"strings"
	"testing"

	"photomatch/internal/domain"
)

func gradientImage(w, h int) domain.Image {
	pix := make([]uint8, 4*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := (y*w + x) * 4
			v := uint8((x*255/w + y*255/h) / 2)
			pix[p] = v
			pix[p+1] = v
			pix[p+2] = v
			pix[p+3] = 255
		}
	}
	return domain.Image{Width: w, Height: h, Pix: pix}
}

func checkerImage(w, h int) domain.Image {
	pix := make([]uint8, 4*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := (y*w + x) * 4
			var v uint8
			if (x/8+y/8)%2 == 0 {
				v = 255
			}
			pix[p] = v
			pix[p+1] = v
			pix[p+2] = v
			pix[p+3] = 255
		}
	}
	return domain.Image{Width: w, Height: h, Pix: pix}
}

func flatImage(w, h int) domain.Image {
	pix := make([]uint8, 4*w*h)
	for i := range pix {
		pix[i] = 128
	}
	return domain.Image{Width: w, Height: h, Pix: pix}
}

func TestHashDeterminism(t *testing.T) {
	img := gradientImage(100, 80)

	h1 := Hash(img)
	h2 := Hash(img)

	if h1 != h2 {
		t.Errorf("expected identical hashes for identical pixels, got %s and %s", h1, h2)
	}
	if len(h1) != HexLen {
		t.Errorf("expected %d-char hash, got %d (%s)", HexLen, len(h1), h1)
	}
}

func TestHashPadBitIsZero(t *testing.T) {
	// 63 coefficient bits plus one trailing zero: the lowest bit of the
	// encoded value is always 0, so the last nibble is even.
	for _, img := range []domain.Image{gradientImage(64, 64), checkerImage(64, 64), flatImage(32, 32)} {
		h := Hash(img)
		last := hexNibble(h[len(h)-1])
		if last%2 != 0 {
			t.Errorf("expected even last nibble (zero pad bit), got %s", h)
		}
	}
}

func TestHashDistinguishesImages(t *testing.T) {
	a := Hash(gradientImage(64, 64))
	b := Hash(checkerImage(64, 64))

	if Distance(a, b) == 0 {
		t.Errorf("expected different hashes for gradient and checkerboard, both %s", a)
	}
}

func TestBlackImageHashesToZero(t *testing.T) {
	// All-zero luminance transforms to exactly-zero coefficients, and
	// strictly-greater thresholding leaves every bit unset.
	black := domain.Image{Width: 40, Height: 40, Pix: make([]uint8, 4*40*40)}
	h := Hash(black)
	if h != strings.Repeat("0", HexLen) {
		t.Errorf("expected all-zero hash for black image, got %s", h)
	}
}

func TestDistanceProperties(t *testing.T) {
	a := Hash(gradientImage(64, 64))
	b := Hash(checkerImage(64, 64))

	if d := Distance(a, a); d != 0 {
		t.Errorf("distance(a,a) = %d, want 0", d)
	}
	if Distance(a, b) != Distance(b, a) {
		t.Errorf("distance not symmetric: %d vs %d", Distance(a, b), Distance(b, a))
	}
	if d := Distance(a, b); d < 0 || d > 64 {
		t.Errorf("distance %d outside [0,64]", d)
	}
}

func TestSimilarity(t *testing.T) {
	a := Hash(gradientImage(64, 64))
	b := Hash(checkerImage(64, 64))

	if s := Similarity(a, a); s != 1.0 {
		t.Errorf("similarity(a,a) = %f, want 1.0", s)
	}
	if s := Similarity(a, b); s < 0 || s >= 1.0 {
		t.Errorf("similarity(a,b) = %f, want [0,1)", s)
	}
	if s := Similarity("0000000000000000", "ffffffffffffffff"); s != 0 {
		t.Errorf("similarity of complementary hashes = %f, want 0", s)
	}
}

func TestDistanceZeroExtendsShortHashes(t *testing.T) {
	if d := Distance("ffff", "ffff000000000000"); d != 0 {
		t.Errorf("short hash should zero-extend: distance %d, want 0", d)
	}
	if d := Distance("", "0000000000000000"); d != 0 {
		t.Errorf("empty hash should equal all-zero hash: distance %d, want 0", d)
	}
	if d := Distance("", "8000000000000000"); d != 1 {
		t.Errorf("expected single-bit distance, got %d", d)
	}
}

func TestHashResizesAnyGeometry(t *testing.T) {
	// Smaller than the 32×32 grid and extreme aspect ratios still hash.
	for _, img := range []domain.Image{gradientImage(16, 16), gradientImage(500, 20), gradientImage(20, 500)} {
		h := Hash(img)
		if len(h) != HexLen {
			t.Errorf("expected %d-char hash for %dx%d, got %q", HexLen, img.Width, img.Height, h)
		}
	}
}
