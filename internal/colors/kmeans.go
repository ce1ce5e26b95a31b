package colors

import (
	"image"
	"math"
	"math/rand"
	"sort"
)

const (
	// maxSamples caps the number of pixels fed into clustering. Sampling
	// keeps large images fast without visibly changing the palette.
	maxSamples = 4096

	maxIterations = 20
)

type point struct {
	r, g, b float64
}

// DominantColors clusters the image's pixels with k-means and returns up to
// k cluster centers ordered by cluster size, largest first. k is clamped to
// [1,10]. A nil image returns nil.
func DominantColors(img image.Image, k int) []RGB {
	if img == nil {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > 10 {
		k = 10
	}

	samples := samplePixels(img)
	if len(samples) == 0 {
		return nil
	}
	if k > len(samples) {
		k = len(samples)
	}

	centers, sizes := cluster(samples, k)

	type ranked struct {
		center point
		size   int
	}
	out := make([]ranked, len(centers))
	for i := range centers {
		out[i] = ranked{centers[i], sizes[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].size > out[j].size })

	colors := make([]RGB, 0, len(out))
	for _, c := range out {
		colors = append(colors, RGB{
			R: clampChannel(c.center.r),
			G: clampChannel(c.center.g),
			B: clampChannel(c.center.b),
		})
	}
	return colors
}

func samplePixels(img image.Image) []point {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}

	// Stride so that roughly maxSamples pixels survive.
	stride := 1
	for (w/stride)*(h/stride) > maxSamples {
		stride++
	}

	samples := make([]point, 0, maxSamples)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			samples = append(samples, point{
				r: float64(r >> 8),
				g: float64(g >> 8),
				b: float64(b >> 8),
			})
		}
	}
	return samples
}

func cluster(samples []point, k int) ([]point, []int) {
	// Deterministic seed so the same image always yields the same palette.
	rng := rand.New(rand.NewSource(1))

	centers := make([]point, k)
	for i, idx := range rng.Perm(len(samples))[:k] {
		centers[i] = samples[idx]
	}

	assignments := make([]int, len(samples))
	sizes := make([]int, k)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, s := range samples {
			best, bestDist := 0, math.MaxFloat64
			for j, c := range centers {
				d := sqDist(s, c)
				if d < bestDist {
					best, bestDist = j, d
				}
			}
			if assignments[i] != best || iter == 0 {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]point, k)
		for i := range sizes {
			sizes[i] = 0
		}
		for i, s := range samples {
			j := assignments[i]
			sums[j].r += s.r
			sums[j].g += s.g
			sums[j].b += s.b
			sizes[j]++
		}
		for j := range centers {
			if sizes[j] == 0 {
				// Empty cluster, re-seed from a random sample.
				centers[j] = samples[rng.Intn(len(samples))]
				continue
			}
			n := float64(sizes[j])
			centers[j] = point{r: sums[j].r / n, g: sums[j].g / n, b: sums[j].b / n}
		}
	}

	return centers, sizes
}

func sqDist(a, b point) float64 {
	dr, dg, db := a.r-b.r, a.g-b.g, a.b-b.b
	return dr*dr + dg*dg + db*db
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}
