// Package phash computes a 64-bit DCT perceptual hash from raw pixel
// data. The hash captures the low-frequency structure of an image and is
// robust to minor edits; visually similar images land within a small
// Hamming distance of each other.
package phash

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"photomatch/internal/domain"
)

const (
	gridSize  = 32
	blockSize = 8

	// HexLen is the length of an encoded hash: 64 bits as hex.
	HexLen = 16
)

// Precomputed DCT-II basis: cosTable[i][u] = cos((2i+1)uπ/2N) and the
// orthonormal scale factors with C(0)=1/√2, C(k>0)=1.
var (
	cosTable [gridSize][gridSize]float64
	dctScale [gridSize]float64
)

func init() {
	for i := 0; i < gridSize; i++ {
		for u := 0; u < gridSize; u++ {
			cosTable[i][u] = math.Cos((2*float64(i) + 1) * float64(u) * math.Pi / (2 * gridSize))
		}
	}
	norm := math.Sqrt(2.0 / float64(gridSize))
	for u := 0; u < gridSize; u++ {
		dctScale[u] = norm
	}
	dctScale[0] = norm / math.Sqrt2
}

// Hash computes the perceptual hash of img as a 16-character hex string.
// The image is reduced to a 32×32 luminance grid, transformed with a full
// 2-D DCT, and the 63 lowest-frequency AC coefficients are thresholded
// against their median. One trailing zero bit pads the result to 64 bits.
func Hash(img domain.Image) string {
	gray := grayscale32(img)
	freq := dct2d(gray)

	coeffs := make([]float64, 0, blockSize*blockSize-1)
	for y := 0; y < blockSize; y++ {
		for x := 0; x < blockSize; x++ {
			if x == 0 && y == 0 {
				// The DC term is the overall brightness, not structure.
				continue
			}
			coeffs = append(coeffs, freq[y][x])
		}
	}
	med := median(coeffs)

	var h uint64
	for _, c := range coeffs {
		h <<= 1
		if c > med {
			h |= 1
		}
	}
	h <<= 1 // pad bit 63, always zero
	return fmt.Sprintf("%016x", h)
}

// Distance counts differing bit positions between two hex-encoded hashes,
// in [0,64]. Short or malformed hashes are zero-extended, matching what
// the encoder produces for absent bits.
func Distance(a, b string) int {
	return bits.OnesCount64(parseHash(a) ^ parseHash(b))
}

// Similarity maps Distance into [0,1]; 1.0 only for identical hashes.
func Similarity(a, b string) float64 {
	return 1.0 - float64(Distance(a, b))/64.0
}

func parseHash(h string) uint64 {
	var v uint64
	for i := 0; i < HexLen; i++ {
		v <<= 4
		if i < len(h) {
			v |= uint64(hexNibble(h[i]))
		}
	}
	return v
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// grayscale32 resizes img to a 32×32 grid of luminance values using
// area averaging. Every source pixel contributes to exactly one cell,
// so the reduction is deterministic for identical pixel data.
func grayscale32(img domain.Image) [gridSize][gridSize]float64 {
	var out [gridSize][gridSize]float64
	if img.Width <= 0 || img.Height <= 0 {
		return out
	}
	for ty := 0; ty < gridSize; ty++ {
		y0 := ty * img.Height / gridSize
		y1 := (ty + 1) * img.Height / gridSize
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for tx := 0; tx < gridSize; tx++ {
			x0 := tx * img.Width / gridSize
			x1 := (tx + 1) * img.Width / gridSize
			if x1 <= x0 {
				x1 = x0 + 1
			}
			var sum float64
			var n int
			for y := y0; y < y1 && y < img.Height; y++ {
				row := y * img.Width * 4
				for x := x0; x < x1 && x < img.Width; x++ {
					p := row + x*4
					if p+2 >= len(img.Pix) {
						continue
					}
					r := float64(img.Pix[p])
					g := float64(img.Pix[p+1])
					b := float64(img.Pix[p+2])
					sum += 0.299*r + 0.587*g + 0.114*b
					n++
				}
			}
			if n > 0 {
				out[ty][tx] = sum / float64(n)
			}
		}
	}
	return out
}

// dct2d applies the orthonormal 2-D DCT-II, rows then columns.
func dct2d(in [gridSize][gridSize]float64) [gridSize][gridSize]float64 {
	var tmp, out [gridSize][gridSize]float64
	for y := 0; y < gridSize; y++ {
		tmp[y] = dct1d(in[y])
	}
	for x := 0; x < gridSize; x++ {
		var col [gridSize]float64
		for y := 0; y < gridSize; y++ {
			col[y] = tmp[y][x]
		}
		col = dct1d(col)
		for y := 0; y < gridSize; y++ {
			out[y][x] = col[y]
		}
	}
	return out
}

func dct1d(in [gridSize]float64) [gridSize]float64 {
	var out [gridSize]float64
	for u := 0; u < gridSize; u++ {
		var sum float64
		for i := 0; i < gridSize; i++ {
			sum += in[i] * cosTable[i][u]
		}
		out[u] = sum * dctScale[u]
	}
	return out
}

func median(values []float64) float64 {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)

	n := len(cp)
	switch {
	case n == 0:
		return 0
	case n%2 == 0:
		return (cp[n/2-1] + cp[n/2]) / 2
	default:
		return cp[n/2]
	}
}
