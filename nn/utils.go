package nn

import (
	"math"
)

// MaxAbsDiff calculates the maximum absolute difference between two slices
func MaxAbsDiff(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	m := 0.0
	for i := 0; i < n; i++ {
		d := math.Abs(float64(a[i] - b[i]))
		if d > m {
			m = d
		}
	}
	return m
}

// SquaredError writes the gradient of ½‖output − target‖² into dst and returns the loss
func SquaredError(dst, output, target Vector) float32 {
	loss := float32(0)
	for i := range dst {
		d := output[i] - target[i]
		dst[i] = d
		loss += d * d
	}
	return loss / 2
}

// Mean returns the mean value of a slice
func Mean(v []float32) float32 {
	if len(v) == 0 {
		return 0
	}
	sum := float32(0)
	for _, x := range v {
		sum += x
	}
	return sum / float32(len(v))
}
