package raster

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/tilepyramid/internal/types"
)

// Resampling selects how source pixels are interpolated.
type Resampling int

const (
	Nearest Resampling = iota
	Bilinear
)

func (r Resampling) String() string {
	switch r {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	default:
		return fmt.Sprintf("Resampling(%d)", int(r))
	}
}

// ParseResampling accepts "nearest" or "bilinear", case-insensitively.
func ParseResampling(s string) (Resampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest", "":
		return Nearest, nil
	case "bilinear":
		return Bilinear, nil
	default:
		return Nearest, fmt.Errorf("%w: unknown resampling %q (want nearest or bilinear)", types.ErrInvalidArgument, s)
	}
}
