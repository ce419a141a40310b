package overlay

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/repage-dev/repage/internal/geometry"
)

var (
	placementColor = color.RGBA{R: 30, G: 120, B: 220, A: 255}
	forcedColor    = color.RGBA{R: 220, G: 50, B: 50, A: 255}
	leaderColor    = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// RenderAnnotated draws the placements onto a copy of the cleaned
// figure raster for debugging: placement rectangles, leader lines back
// to the original boxes, and the translated text in a fixed bitmap
// face. The input image is not modified.
func RenderAnnotated(img image.Image, placements []Placement) *image.NRGBA {
	out := imaging.Clone(img)
	for _, p := range placements {
		c := placementColor
		if p.Forced {
			c = forcedColor
		}
		geometry.DrawRect(out, p.Box.ToRect(), c, 1)
		if p.Leader {
			from := p.Box.Center()
			to := p.Label.Box.Center()
			geometry.DrawLine(out,
				image.Pt(int(from.X), int(from.Y)),
				image.Pt(int(to.X), int(to.Y)),
				leaderColor, 1)
		}
		drawString(out, p.Box.X+2, p.Box.Bottom()-3, p.Label.Translation, c)
	}
	return out
}

func drawString(img *image.NRGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
