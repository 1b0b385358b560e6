package nn

// Rescale maps a unit-interval value onto [low, up].
func Rescale(value, low, up float64) float64 {
	return value*(up-low) + low
}

// Clip bounds value to [low, up].
func Clip(value, low, up float64) float64 {
	if value < low {
		return low
	}
	if value > up {
		return up
	}
	return value
}
