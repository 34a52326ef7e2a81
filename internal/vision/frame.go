package vision

import (
	"image"
	"image/color"
)

// Frame is a single grayscale raster from a video source. Pixels are
// stored row-major, one byte per pixel.
type Frame struct {
	Pixels []uint8
	Width  int
	Height int
}

// MeanLuminance returns the mean pixel value scaled to [0,1]. An empty
// frame reads as 0.
func (f *Frame) MeanLuminance() float64 {
	if f == nil || len(f.Pixels) == 0 {
		return 0
	}
	var sum uint64
	for _, p := range f.Pixels {
		sum += uint64(p)
	}
	return float64(sum) / float64(len(f.Pixels)) / 255.0
}

// FrameFromImage converts a decoded image into a grayscale frame using
// the standard luminance weights.
func FrameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	f := &Frame{
		Pixels: make([]uint8, w*h),
		Width:  w,
		Height: h,
	}

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			copy(f.Pixels[y*w:(y+1)*w], gray.Pix[y*gray.Stride:y*gray.Stride+w])
		}
		return f
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			f.Pixels[y*w+x] = c.Y
		}
	}
	return f
}
