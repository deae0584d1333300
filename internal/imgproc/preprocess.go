package imgproc

import (
	"image"
	"image/color"
	"sort"
)

// Options are the only tunables of the preprocessing transform.
type Options struct {
	// Window is the side of the square neighbourhood used for adaptive
	// thresholding. Must be odd; default 11.
	Window int
	// Bias is subtracted from the local mean before comparing, biasing
	// the threshold toward keeping strokes. Default 2.
	Bias int
}

// DefaultOptions returns the documented default tunables.
func DefaultOptions() Options {
	return Options{Window: 11, Bias: 2}
}

func (o Options) normalized() Options {
	if o.Window < 3 {
		o.Window = 11
	}
	if o.Window%2 == 0 {
		o.Window++
	}
	return o
}

// Preprocess produces a binarized, denoised variant of a grayscale image
// intended to rescue recognition on blurry or low-contrast captures.
// Pure and deterministic for a given input and fixed Options.
func Preprocess(gray *image.Gray, opts Options) *image.Gray {
	return Denoise(Binarize(gray, opts))
}

// Binarize applies window-based adaptive thresholding: each pixel is
// compared against the mean of its local neighbourhood rather than a
// single global threshold, which tolerates uneven lighting across a
// photographed page.
func Binarize(gray *image.Gray, opts Options) *image.Gray {
	opts = opts.normalized()
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}

	// Summed-area table for O(1) window means.
	integral := make([]int64, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + row
		}
	}

	r := opts.Window / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-r), min(h-1, y+r)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-r), min(w-1, x+r)
			area := int64(x1-x0+1) * int64(y1-y0+1)
			sum := integral[(y1+1)*stride+x1+1] -
				integral[y0*stride+x1+1] -
				integral[(y1+1)*stride+x0] +
				integral[y0*stride+x0]
			mean := sum / area

			v := int64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			if v > mean-int64(opts.Bias) {
				out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: 255})
			} else {
				out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// Denoise runs a 3x3 median pass over a binary image, removing the
// salt-and-pepper specks that adaptive thresholding leaves behind.
func Denoise(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	var window [9]uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
						continue
					}
					window[n] = gray.GrayAt(nx, ny).Y
					n++
				}
			}
			s := window[:n]
			sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
			out.SetGray(x, y, color.Gray{Y: s[n/2]})
		}
	}
	return out
}
