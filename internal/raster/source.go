// Package raster holds georeferenced source imagery and samples it into
// output tiles through the Mercator engine.
package raster

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoders for Open
	_ "image/png"
	"io"
	"math"
	"os"

	"github.com/disintegration/gift"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/MeKo-Tech/tilepyramid/internal/mercator"
	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

// Supported source reference systems.
const (
	SRSGeographic  = "EPSG:4326"
	SRSWebMercator = "EPSG:3857"
)

// Source is a north-up image covering an extent in its SRS. Pixel (0,0) is
// the north-west corner of the extent.
type Source struct {
	img    *image.NRGBA
	extent types.Extent
	srs    string
}

// Open decodes a PNG, JPEG, TIFF or WebP file and georeferences it.
func Open(path string, extent types.Extent, srs string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster: %w", err)
	}
	defer f.Close() // nolint:errcheck

	return Decode(f, extent, srs)
}

// Decode reads an image from r and georeferences it.
func Decode(r io.Reader, extent types.Extent, srs string) (*Source, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raster: %w", err)
	}
	src, err := NewSource(img, extent, srs)
	if err != nil {
		return nil, fmt.Errorf("%s raster: %w", format, err)
	}
	return src, nil
}

// NewSource wraps an in-memory image.
func NewSource(img image.Image, extent types.Extent, srs string) (*Source, error) {
	if srs != SRSGeographic && srs != SRSWebMercator {
		return nil, fmt.Errorf("%w: unsupported srs %q (want %s or %s)", types.ErrInvalidArgument, srs, SRSGeographic, SRSWebMercator)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", types.ErrInvalidArgument)
	}
	if extent.Width() <= 0 || extent.Height() <= 0 {
		return nil, fmt.Errorf("%w: extent %v has no area", types.ErrInvalidArgument, extent)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Bounds().Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Copy(nrgba, image.Point{}, img, b, xdraw.Src, nil)
	}

	return &Source{img: nrgba, extent: extent, srs: srs}, nil
}

// Image returns the normalised pixels. Callers must not modify them.
func (s *Source) Image() *image.NRGBA { return s.img }

// Extent returns the footprint in SRS units.
func (s *Source) Extent() types.Extent { return s.extent }

// SRS returns SRSGeographic or SRSWebMercator.
func (s *Source) SRS() string { return s.srs }

// Width returns the image width in pixels.
func (s *Source) Width() int { return s.img.Bounds().Dx() }

// Height returns the image height in pixels.
func (s *Source) Height() int { return s.img.Bounds().Dy() }

// MetersExtent returns the source extent in Web Mercator meters.
func (s *Source) MetersExtent(m *mercator.Mercator) (types.Extent, error) {
	if s.srs == SRSWebMercator {
		return s.extent, nil
	}
	return m.LatLonExtentToMeters(s.extent)
}

// MetersPerPixel is the horizontal ground resolution of the source.
func (s *Source) MetersPerPixel(m *mercator.Mercator) (float64, error) {
	e, err := s.MetersExtent(m)
	if err != nil {
		return 0, err
	}
	return e.Width() / float64(s.Width()), nil
}

// Overview returns a copy downsampled by factor on both axes, covering the
// same extent. A factor below 2 returns s.
func (s *Source) Overview(factor int) *Source {
	if factor < 2 {
		return s
	}
	w := max(1, int(math.Ceil(float64(s.Width())/float64(factor))))
	h := max(1, int(math.Ceil(float64(s.Height())/float64(factor))))

	g := gift.New(gift.Resize(w, h, gift.LinearResampling))
	dst := image.NewNRGBA(g.Bounds(s.img.Bounds()))
	g.Draw(dst, s.img)

	return &Source{img: dst, extent: s.extent, srs: s.srs}
}

// Sample returns the colour at (x, y) in the source SRS. The boolean is false
// outside the extent, where the colour is transparent.
func (s *Source) Sample(x, y float64, method Resampling) (color.NRGBA, bool) {
	if !s.extent.Contains(types.Coordinate{X: x, Y: y}) {
		return color.NRGBA{}, false
	}
	u := (x - s.extent.MinX()) / s.extent.Width() * float64(s.Width())
	v := (s.extent.MaxY() - y) / s.extent.Height() * float64(s.Height())

	if method == Bilinear {
		return s.bilinear(u, v), true
	}
	return s.nearest(u, v), true
}

func (s *Source) nearest(u, v float64) color.NRGBA {
	x := clamp(int(math.Floor(u)), 0, s.Width()-1)
	y := clamp(int(math.Floor(v)), 0, s.Height()-1)
	return s.img.NRGBAAt(x, y)
}

// bilinear interpolates between the four nearest pixel centres in
// premultiplied space so transparent neighbours do not darken edges.
func (s *Source) bilinear(u, v float64) color.NRGBA {
	fu := u - 0.5
	fv := v - 0.5
	x0 := int(math.Floor(fu))
	y0 := int(math.Floor(fv))
	tx := fu - float64(x0)
	ty := fv - float64(y0)

	var r, g, b, a float64
	for _, p := range [4]struct {
		dx, dy int
		w      float64
	}{
		{0, 0, (1 - tx) * (1 - ty)},
		{1, 0, tx * (1 - ty)},
		{0, 1, (1 - tx) * ty},
		{1, 1, tx * ty},
	} {
		if p.w == 0 {
			continue
		}
		c := s.img.NRGBAAt(clamp(x0+p.dx, 0, s.Width()-1), clamp(y0+p.dy, 0, s.Height()-1))
		ca := float64(c.A) * p.w
		r += float64(c.R) * ca
		g += float64(c.G) * ca
		b += float64(c.B) * ca
		a += ca
	}
	if a == 0 {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: uint8(math.Round(r / a)),
		G: uint8(math.Round(g / a)),
		B: uint8(math.Round(b / a)),
		A: uint8(math.Round(a)),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
