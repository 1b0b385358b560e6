package pinn

import (
	"fmt"
	"math"
)

// SNCurve is the stress-life line in log-log space. Eval returns the damage
// of one cycle at a log-scale load: 1 / 10^(A*load + B).
type SNCurve struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func (c *SNCurve) Eval(load float64) float64 {
	return 1 / math.Pow(10, c.A*load+c.B)
}

func (c *SNCurve) Values() []float64 {
	return []float64{c.A, c.B}
}

func (c *SNCurve) SetValues(values []float64) error {
	if len(values) != 2 {
		return fmt.Errorf("sn-curve expects 2 parameters, got %d", len(values))
	}
	c.A, c.B = values[0], values[1]
	return nil
}
