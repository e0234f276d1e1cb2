package filter

import (
	"image"
	"math"
	"restorebot/internal/core/domain"

	"github.com/disintegration/imaging"
)

const sharpenSigma = 1.2

// Apply runs denoise, sharpen, contrast, saturation and gamma in that order. Steps whose parameter is the
// identity are skipped. The source image is never modified.
func Apply(src image.Image, opts domain.FilterOptions) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	img := imaging.Clone(src)

	if h := opts.EffectiveDenoiseStrength(); h > 0 {
		var err error
		img, err = Denoise(img, h)
		if err != nil {
			return nil, err
		}
	}

	if amount := opts.EffectiveSharpenAmount(); amount > 0 {
		img = Sharpen(img, amount)
	}

	if opts.Contrast != 1.0 {
		Contrast(img, opts.Contrast)
	}

	if opts.Saturation != 1.0 {
		Saturation(img, opts.Saturation)
	}

	if opts.Gamma != 1.0 {
		Gamma(img, opts.Gamma)
	}

	return img, nil
}

// Sharpen applies an unsharp mask: src*(1+amount) - blur*amount.
func Sharpen(img *image.NRGBA, amount float64) *image.NRGBA {
	blur := imaging.Blur(img, sharpenSigma)
	out := image.NewNRGBA(img.Rect)

	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+img.Rect.Dx()*4]
		blurRow := blur.Pix[y*blur.Stride : y*blur.Stride+img.Rect.Dx()*4]
		outRow := out.Pix[y*out.Stride : y*out.Stride+img.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			for c := 0; c < 3; c++ {
				outRow[i+c] = clamp(float64(row[i+c])*(1+amount) - float64(blurRow[i+c])*amount)
			}
			outRow[i+3] = row[i+3]
		}
	}

	return out
}

// Contrast scales every color channel by alpha in place.
func Contrast(img *image.NRGBA, alpha float64) {
	var table [256]uint8
	for i := range table {
		table[i] = clamp(float64(i) * alpha)
	}
	applyTable(img, &table)
}

// Gamma applies (v/255)^(1/gamma)*255 per channel in place.
func Gamma(img *image.NRGBA, gamma float64) {
	table := GammaTable(gamma)
	applyTable(img, &table)
}

// GammaTable precomputes the power-law correction for every 8-bit value.
func GammaTable(gamma float64) [256]uint8 {
	var table [256]uint8
	inv := 1.0 / gamma
	for i := range table {
		table[i] = uint8(math.Min(math.Pow(float64(i)/255.0, inv)*255.0, 255))
	}
	return table
}

// Saturation scales the HSV saturation of every pixel in place, clamping to the valid range.
func Saturation(img *image.NRGBA, factor float64) {
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+img.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			h, s, v := rgbToHSV(row[i], row[i+1], row[i+2])
			s = math.Min(s*factor, 1)
			row[i], row[i+1], row[i+2] = hsvToRGB(h, s, v)
		}
	}
}

func applyTable(img *image.NRGBA, table *[256]uint8) {
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+img.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = table[row[i]]
			row[i+1] = table[row[i+1]]
			row[i+2] = table[row[i+2]]
		}
	}
}

// rgbToHSV returns hue in degrees, saturation and value in [0,1].
func rgbToHSV(r, g, b uint8) (float64, float64, float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	delta := maxC - minC

	var h float64
	switch {
	case delta == 0:
		h = 0
	case maxC == rf:
		h = 60 * math.Mod((gf-bf)/delta, 6)
	case maxC == gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}
	if h < 0 {
		h += 360
	}

	var s float64
	if maxC > 0 {
		s = delta / maxC
	}

	return h, s, maxC
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return clamp((r + m) * 255), clamp((g + m) * 255), clamp((b + m) * 255)
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
