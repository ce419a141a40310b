package clean

import (
	"image"
	"image/color"
)

// estimateBackground returns the paper color as the given percentile of
// the grayscale histogram. Scanned pages are predominantly background,
// so a high percentile lands on the paper tone rather than ink.
func estimateBackground(img *image.NRGBA, percentile float64) color.NRGBA {
	b := img.Bounds()
	var hist [256]int
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[grayAt(img, x, y)]++
			total++
		}
	}
	if total == 0 {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	target := int(percentile / 100 * float64(total))
	if target >= total {
		target = total - 1
	}
	cum := 0
	level := 255
	for v := 0; v < 256; v++ {
		cum += hist[v]
		if cum > target {
			level = v
			break
		}
	}
	g := uint8(level)
	return color.NRGBA{R: g, G: g, B: g, A: 255}
}

func grayAt(img *image.NRGBA, x, y int) int {
	c := img.NRGBAAt(x, y)
	// Rec. 601 luma
	return (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
}

// inpaint fills masked pixels by iterative diffusion from their
// unmasked neighborhood. It sweeps until every masked pixel has been
// assigned, growing inward from the mask border.
func inpaint(img *image.NRGBA, mask []bool, radius int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if radius < 1 {
		radius = 1
	}
	pending := make([]bool, len(mask))
	copy(pending, mask)

	remaining := 0
	for _, m := range pending {
		if m {
			remaining++
		}
	}
	for remaining > 0 {
		progressed := false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if !pending[y*w+x] {
					continue
				}
				var rSum, gSum, bSum, n int
				for dy := -radius; dy <= radius; dy++ {
					for dx := -radius; dx <= radius; dx++ {
						nx, ny := x+dx, y+dy
						if nx < 0 || nx >= w || ny < 0 || ny >= h {
							continue
						}
						if pending[ny*w+nx] {
							continue
						}
						c := img.NRGBAAt(b.Min.X+nx, b.Min.Y+ny)
						rSum += int(c.R)
						gSum += int(c.G)
						bSum += int(c.B)
						n++
					}
				}
				if n == 0 {
					continue
				}
				img.SetNRGBA(b.Min.X+x, b.Min.Y+y, color.NRGBA{
					R: uint8(rSum / n),
					G: uint8(gSum / n),
					B: uint8(bSum / n),
					A: 255,
				})
				pending[y*w+x] = false
				remaining--
				progressed = true
			}
		}
		if !progressed {
			// Fully masked image: nothing to diffuse from.
			break
		}
	}
}
