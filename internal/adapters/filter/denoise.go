package filter

import (
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	patchRadius  = 1
	searchRadius = 5
)

// Denoise applies non-local means filtering to the color channels. Every pixel becomes the weighted mean of
// the pixels in its search window, weighted by how similar their surrounding patches are. Larger h smooths more.
// Alpha and dimensions are kept.
func Denoise(img *image.NRGBA, h float64) (*image.NRGBA, error) {
	w, ht := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewNRGBA(img.Rect)
	if w == 0 || ht == 0 {
		return out, nil
	}

	planes := make([][]float32, 3)
	for c := range planes {
		planes[c] = make([]float32, w*ht)
	}
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			i := y*img.Stride + x*4
			for c := 0; c < 3; c++ {
				planes[c][y*w+x] = float32(img.Pix[i+c])
			}
		}
	}

	// patch distance is averaged over patch pixels and channels, h is in 8-bit units
	patchSize := float64((2*patchRadius+1)*(2*patchRadius+1)) * 3
	invH2 := 1.0 / (h * h)

	at := func(p []float32, x, y int) float32 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), ht-1)
		return p[y*w+x]
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for y := 0; y < ht; y++ {
		g.Go(func() error {
			for x := 0; x < w; x++ {
				var sum [3]float64
				var wsum float64

				for sy := y - searchRadius; sy <= y+searchRadius; sy++ {
					for sx := x - searchRadius; sx <= x+searchRadius; sx++ {
						var d2 float64
						for py := -patchRadius; py <= patchRadius; py++ {
							for px := -patchRadius; px <= patchRadius; px++ {
								for _, p := range planes {
									d := float64(at(p, x+px, y+py) - at(p, sx+px, sy+py))
									d2 += d * d
								}
							}
						}

						weight := math.Exp(-(d2 / patchSize) * invH2)
						wsum += weight
						for c, p := range planes {
							sum[c] += weight * float64(at(p, sx, sy))
						}
					}
				}

				o := y*out.Stride + x*4
				for c := 0; c < 3; c++ {
					out.Pix[o+c] = clamp(sum[c] / wsum)
				}
				out.Pix[o+3] = img.Pix[y*img.Stride+x*4+3]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
