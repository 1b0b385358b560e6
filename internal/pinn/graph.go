package pinn

// DamageGraph maps one step vector (features plus current damage) to a
// damage increment.
type DamageGraph interface {
	InputWidth() int
	DamageRate(x []float64) (float64, error)
}
