package photo

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrNotImage 数据不是可解码的图片
var ErrNotImage = errors.New("data is not a decodable image")

// Deriver 缩略图生成器
// 输出统一为 JPEG，长边不超过 MaxSide，比例不变
type Deriver struct {
	MaxSide int
	Quality int
}

// NewDeriver 创建缩略图生成器
func NewDeriver(maxSide, quality int) *Deriver {
	if maxSide <= 0 {
		maxSide = 800
	}
	if quality <= 0 || quality > 100 {
		quality = 82
	}
	return &Deriver{MaxSide: maxSide, Quality: quality}
}

// Derive 从原图数据生成缩略图并写入 w
// 原图长边不超过 MaxSide 时只做格式转换，不放大
func (d *Deriver) Derive(r io.Reader, w io.Writer) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return ErrNotImage
	}

	dstW, dstH := fitWithin(width, height, d.MaxSide)

	var dst image.Image
	if dstW == width && dstH == height {
		dst = src
	} else {
		scaled := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		dst = scaled
	}

	if err := jpeg.Encode(w, dst, &jpeg.Options{Quality: d.Quality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return nil
}

// fitWithin 计算缩放后的尺寸，长边缩到 maxSide 以内，保持比例
func fitWithin(width, height, maxSide int) (int, int) {
	if width <= maxSide && height <= maxSide {
		return width, height
	}

	if width >= height {
		scaled := height * maxSide / width
		if scaled < 1 {
			scaled = 1
		}
		return maxSide, scaled
	}

	scaled := width * maxSide / height
	if scaled < 1 {
		scaled = 1
	}
	return scaled, maxSide
}
