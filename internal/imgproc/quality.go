package imgproc

import "image"

// Sharpness computes a second-derivative edge-energy score for a
// grayscale image: the variance of a 4-neighbour Laplacian response.
// Higher means sharper. The score is cheap relative to an OCR pass, so
// it can run before committing to expensive preprocessing.
//
// Undefined on zero-size images; Decode rejects those upstream.
func Sharpness(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	var sum, sumSq float64
	n := 0
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			c := int(gray.GrayAt(x, y).Y)
			lap := 4*c -
				int(gray.GrayAt(x, y-1).Y) -
				int(gray.GrayAt(x, y+1).Y) -
				int(gray.GrayAt(x-1, y).Y) -
				int(gray.GrayAt(x+1, y).Y)
			f := float64(lap)
			sum += f
			sumSq += f * f
			n++
		}
	}

	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
