package atlas

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/summit-editor/summit/pkg/binio"
	"github.com/summit-editor/summit/pkg/errs"
)

const (
	dataWidthBytes  = 4
	dataHeightBytes = 4

	// largest edge accepted for a data file, matching the XNA texture limit
	maxDataEdge = 16384

	bytesPerPixel = 4
)

/*
a .data file is a run-length encoded image

	i32 width
	i32 height
	u8  has_alpha

followed by runs until width*height pixels have been produced

	u8  repeat count (0 is read as 1)
	u8  alpha          only when has_alpha
	u8  blue, green, red  skipped when has_alpha and alpha == 0

runs continue across row boundaries. colour bytes are stored premultiplied, so
they are copied verbatim into an *image.RGBA, which is Go's premultiplied type.
*/

// DecodeData decodes a .data stream into an RGBA image.
func DecodeData(r io.Reader) (*image.RGBA, error) {
	stream, err := binio.FromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading data stream: %w", err)
	}

	return decodeData(stream)
}

// DecodeDataBytes decodes an in-memory .data file.
func DecodeDataBytes(data []byte) (*image.RGBA, error) {
	return decodeData(binio.New(data))
}

func decodeData(stream *binio.Cursor) (*image.RGBA, error) {
	width, height, hasAlpha, err := decodeDataHeader(stream)
	if err != nil {
		return nil, fmt.Errorf("decoding data header: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	if err = decodeDataRuns(stream, img.Pix, hasAlpha); err != nil {
		return nil, fmt.Errorf("decoding data pixels: %w", err)
	}

	return img, nil
}

func decodeDataHeader(stream *binio.Cursor) (width, height int, hasAlpha bool, err error) {
	w, err := stream.ReadInt32()
	if err != nil {
		return 0, 0, false, err
	}

	h, err := stream.ReadInt32()
	if err != nil {
		return 0, 0, false, err
	}

	if w < 0 || h < 0 || w > maxDataEdge || h > maxDataEdge {
		return 0, 0, false, errs.Malformed("invalid image dimensions %dx%d", w, h)
	}

	if hasAlpha, err = stream.ReadBool(); err != nil {
		return 0, 0, false, err
	}

	return int(w), int(h), hasAlpha, nil
}

func decodeDataRuns(stream *binio.Cursor, pix []byte, hasAlpha bool) error {
	total := len(pix) / bytesPerPixel

	for written := 0; written < total; {
		repeat, err := stream.ReadUint8()
		if err != nil {
			return err
		}

		var r, g, b, a byte

		a = math.MaxUint8
		if hasAlpha {
			if a, err = stream.ReadUint8(); err != nil {
				return err
			}
		}

		if a > 0 {
			bgr, err := stream.ReadBytes(3)
			if err != nil {
				return err
			}

			b, g, r = bgr[0], bgr[1], bgr[2]
		}

		count := int(repeat)
		if count == 0 {
			count = 1
		}

		if count > total-written {
			count = total - written
		}

		for ; count > 0; count-- {
			offset := written * bytesPerPixel
			pix[offset+0] = r
			pix[offset+1] = g
			pix[offset+2] = b
			pix[offset+3] = a
			written++
		}
	}

	return nil
}

// EncodeData writes img in the .data format. Without alpha every pixel is
// written opaque. Runs are at most 255 pixels long.
func EncodeData(img image.Image, hasAlpha bool) ([]byte, error) {
	bounds := img.Bounds()

	out := &binio.Builder{}
	out.AddInt32(int32(bounds.Dx()))
	out.AddInt32(int32(bounds.Dy()))
	out.AddBool(hasAlpha)

	var (
		run    color.RGBA
		runLen int
	)

	flush := func() {
		if runLen == 0 {
			return
		}

		out.AddUint8(uint8(runLen))
		runLen = 0

		if hasAlpha {
			out.AddUint8(run.A)
			if run.A == 0 {
				return
			}
		}

		out.AddUint8(run.B)
		out.AddUint8(run.G)
		out.AddUint8(run.R)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)

			switch {
			case !hasAlpha:
				c.A = math.MaxUint8
			case c.A == 0:
				c = color.RGBA{}
			}

			if runLen > 0 && (c != run || runLen == math.MaxUint8) {
				flush()
			}

			run = c
			runLen++
		}
	}

	flush()

	return out.Bytes()
}
