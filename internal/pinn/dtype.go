package pinn

import "fmt"

// DType selects the precision values are rounded to at layer boundaries.
type DType string

const (
	Float64 DType = "float64"
	Float32 DType = "float32"
)

func ParseDType(name string) (DType, error) {
	switch name {
	case "", string(Float64):
		return Float64, nil
	case string(Float32):
		return Float32, nil
	default:
		return "", fmt.Errorf("%w: unsupported dtype %q", ErrInvalidConfig, name)
	}
}

// Cast rounds v to the precision of d.
func (d DType) Cast(v float64) float64 {
	if d == Float32 {
		return float64(float32(v))
	}
	return v
}
