package nn

import (
	"github.com/chewxy/math32"
)

// Vector is a fixed length float32 buffer.
// Its length is decided by NewVector and never changes; all binary operations
// expect operands of the receiver's length.
type Vector []float32

// NewVector allocates a zeroed vector of length n
func NewVector(n int) Vector {
	return make(Vector, n)
}

// VectorOf copies values into a new vector
func VectorOf(values ...float32) Vector {
	v := make(Vector, len(values))
	copy(v, values)
	return v
}

// Len returns the vector length
func (v Vector) Len() int {
	return len(v)
}

// Clone returns an independent copy
func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

// CopyFrom overwrites the receiver with src
func (v Vector) CopyFrom(src Vector) Vector {
	copy(v, src)
	return v
}

// Zero sets every element to 0
func (v Vector) Zero() Vector {
	for i := range v {
		v[i] = 0
	}
	return v
}

// Add adds o elementwise in place
func (v Vector) Add(o Vector) Vector {
	for i := range v {
		v[i] += o[i]
	}
	return v
}

// Sub subtracts o elementwise in place
func (v Vector) Sub(o Vector) Vector {
	for i := range v {
		v[i] -= o[i]
	}
	return v
}

// Mul multiplies by o elementwise in place
func (v Vector) Mul(o Vector) Vector {
	for i := range v {
		v[i] *= o[i]
	}
	return v
}

// Div divides by o elementwise in place
func (v Vector) Div(o Vector) Vector {
	for i := range v {
		v[i] /= o[i]
	}
	return v
}

// Rem replaces each element by its remainder modulo o, keeping the dividend's sign
func (v Vector) Rem(o Vector) Vector {
	for i := range v {
		v[i] = math32.Mod(v[i], o[i])
	}
	return v
}

// AddScalar adds x to every element
func (v Vector) AddScalar(x float32) Vector {
	for i := range v {
		v[i] += x
	}
	return v
}

// SubScalar subtracts x from every element
func (v Vector) SubScalar(x float32) Vector {
	for i := range v {
		v[i] -= x
	}
	return v
}

// MulScalar multiplies every element by x
func (v Vector) MulScalar(x float32) Vector {
	for i := range v {
		v[i] *= x
	}
	return v
}

// DivScalar divides every element by x
func (v Vector) DivScalar(x float32) Vector {
	for i := range v {
		v[i] /= x
	}
	return v
}

// RemScalar replaces each element by its remainder modulo x
func (v Vector) RemScalar(x float32) Vector {
	for i := range v {
		v[i] = math32.Mod(v[i], x)
	}
	return v
}

// Dot returns Σ v[i]·o[i]
func (v Vector) Dot(o Vector) float32 {
	sum := float32(0)
	for i := range v {
		sum += v[i] * o[i]
	}
	return sum
}

// MulAdd adds a[i]·b[i] to every element
func (v Vector) MulAdd(a, b Vector) Vector {
	for i := range v {
		v[i] += a[i] * b[i]
	}
	return v
}

// VisitWeights lets a free-standing vector take part in parameter walks
func (v Vector) VisitWeights(fn func(w *float32)) {
	for i := range v {
		fn(&v[i])
	}
}

func sameLen(what string, a, b int) {
	if a != b {
		shapePanic("%s: length %d does not match %d", what, a, b)
	}
}
