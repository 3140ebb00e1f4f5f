package redact

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"bugtriage/internal/errs"
)

const (
	blurRadius = 8
	blurPasses = 3
)

// blurImage decodes the screenshot, applies a coarse whole-image blur, and
// re-encodes as PNG. Whole-image rather than region-targeted: a missed
// region leaks data, an over-blurred screenshot only loses detail.
func blurImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(err, "decode screenshot")
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, src, bounds.Min, draw.Src)

	// Repeated box blur approximates a gaussian well enough for redaction.
	for i := 0; i < blurPasses; i++ {
		rgba = boxBlurHorizontal(rgba, blurRadius)
		rgba = boxBlurVertical(rgba, blurRadius)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, errs.Wrap(err, "encode blurred screenshot")
	}
	return buf.Bytes(), nil
}

func boxBlurHorizontal(src *image.RGBA, radius int) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var r, g, b, a, n int
			for dx := -radius; dx <= radius; dx++ {
				sx := x + dx
				if sx < bounds.Min.X || sx >= bounds.Max.X {
					continue
				}
				i := src.PixOffset(sx, y)
				r += int(src.Pix[i])
				g += int(src.Pix[i+1])
				b += int(src.Pix[i+2])
				a += int(src.Pix[i+3])
				n++
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i] = uint8(r / n)
			dst.Pix[i+1] = uint8(g / n)
			dst.Pix[i+2] = uint8(b / n)
			dst.Pix[i+3] = uint8(a / n)
		}
	}
	return dst
}

func boxBlurVertical(src *image.RGBA, radius int) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var r, g, b, a, n int
			for dy := -radius; dy <= radius; dy++ {
				sy := y + dy
				if sy < bounds.Min.Y || sy >= bounds.Max.Y {
					continue
				}
				i := src.PixOffset(x, sy)
				r += int(src.Pix[i])
				g += int(src.Pix[i+1])
				b += int(src.Pix[i+2])
				a += int(src.Pix[i+3])
				n++
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i] = uint8(r / n)
			dst.Pix[i+1] = uint8(g / n)
			dst.Pix[i+2] = uint8(b / n)
			dst.Pix[i+3] = uint8(a / n)
		}
	}
	return dst
}
