package nn

import (
	"github.com/chewxy/math32"
)

// softSign squashes v into (-1, 1) without exponentials
func softSign(v float32) float32 {
	return v / (1 + math32.Abs(v))
}

// softSignDerivative is d/dv softSign(v) = 1 / (1 + |v|)^2
func softSignDerivative(v float32) float32 {
	d := 1 + math32.Abs(v)
	return 1 / (d * d)
}

// activateCPU applies the activation function on CPU
func activateCPU(v float32, activation ActivationType) float32 {
	switch activation {
	case ActivationReLU:
		if v < 0 {
			return 0
		}
		return v
	case ActivationSoftSign:
		return softSign(v)
	case ActivationSigmoid:
		return (softSign(v) + 1) / 2
	default:
		return v
	}
}

// activateDerivativeCPU computes the derivative of the activation function
// Note: This computes the derivative with respect to the PRE-activation value
func activateDerivativeCPU(preActivation float32, activation ActivationType) float32 {
	switch activation {
	case ActivationReLU:
		if preActivation <= 0 {
			return 0
		}
		return 1
	case ActivationSoftSign:
		return softSignDerivative(preActivation)
	case ActivationSigmoid:
		return softSignDerivative(preActivation) / 2
	default:
		return 1
	}
}

// Activate applies the activation to a single pre-activation value
func (a ActivationType) Activate(v float32) float32 {
	return activateCPU(v, a)
}

// Derivative returns the activation derivative at a pre-activation value
func (a ActivationType) Derivative(v float32) float32 {
	return activateDerivativeCPU(v, a)
}

// SoftSign exposes the squashing primitive used by recurrent cells
func SoftSign(v float32) float32 {
	return softSign(v)
}
