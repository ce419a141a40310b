package clean

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// enhance flattens paper noise into crisp black ink on a white
// background: mild blur, adaptive mean threshold over a local window,
// polarity fix, then speckle removal.
func (c *Cleaner) enhance(img *image.NRGBA) *image.NRGBA {
	blurred := imaging.Blur(imaging.Grayscale(img), 1.0)
	b := blurred.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return blurred
	}

	gray := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = int(blurred.NRGBAAt(b.Min.X+x, b.Min.Y+y).R)
		}
	}

	ink := adaptiveThreshold(gray, w, h, c.cfg.ThresholdBlock, c.cfg.ThresholdBias)

	// We want black objects on a white background; if most of the image
	// came out as ink, the polarity is flipped.
	inkCount := 0
	for _, v := range ink {
		if v {
			inkCount++
		}
	}
	if inkCount > w*h/2 {
		for i := range ink {
			ink[i] = !ink[i]
		}
	}

	removeSpeckles(ink, w, h, c.cfg.SpeckleMaxArea)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255)
			if ink[y*w+x] {
				v = 0
			}
			out.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// adaptiveThreshold marks a pixel as ink when it is darker than the
// mean of its block-sized neighborhood by more than the bias. Uses a
// summed-area table so the window size does not affect cost.
func adaptiveThreshold(gray []int, w, h, block, bias int) []bool {
	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		rowSum := int64(0)
		for x := 0; x < w; x++ {
			rowSum += int64(gray[y*w+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}
	sumAt := func(x0, y0, x1, y1 int) int64 {
		return integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] -
			integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
	}

	half := block / 2
	ink := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0 := maxIntC(0, x-half)
			y0 := maxIntC(0, y-half)
			x1 := minIntC(w, x+half+1)
			y1 := minIntC(h, y+half+1)
			area := int64((x1 - x0) * (y1 - y0))
			mean := sumAt(x0, y0, x1, y1) / area
			ink[y*w+x] = int64(gray[y*w+x]) < mean-int64(bias)
		}
	}
	return ink
}

// removeSpeckles erases 4-connected ink components whose pixel area is
// at or below maxArea, preserving genuine line art.
func removeSpeckles(ink []bool, w, h, maxArea int) {
	if maxArea <= 0 {
		return
	}
	visited := make([]bool, w*h)
	queue := make([]int, 0, 256)
	component := make([]int, 0, 256)

	for start := range ink {
		if !ink[start] || visited[start] {
			continue
		}
		queue = queue[:0]
		component = component[:0]
		queue = append(queue, start)
		visited[start] = true

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			component = append(component, idx)

			x, y := idx%w, idx/w
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if ink[ni] && !visited[ni] {
					visited[ni] = true
					queue = append(queue, ni)
				}
			}
		}
		if len(component) <= maxArea {
			for _, idx := range component {
				ink[idx] = false
			}
		}
	}
}

// lighten rescales intensities so the estimated background maps to
// white, without binarizing. Gradient shading survives this pass.
func (c *Cleaner) lighten(img *image.NRGBA) *image.NRGBA {
	bg := estimateBackground(img, c.cfg.BackgroundPercentile)
	level := int(bg.R)
	if level <= 0 {
		return img
	}
	out := imaging.Clone(img)
	b := out.Bounds()
	scale := func(v uint8) uint8 {
		s := int(v) * 255 / level
		if s > 255 {
			s = 255
		}
		return uint8(s)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := out.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: scale(px.R), G: scale(px.G), B: scale(px.B), A: px.A,
			})
		}
	}
	return out
}

func minIntC(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxIntC(a, b int) int {
	if a > b {
		return a
	}
	return b
}
