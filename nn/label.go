package nn

// LabelEpsilon keeps encoded label values strictly inside (-1, 1)
const LabelEpsilon float32 = 1.0 / 64

// LabelWidths lists the vector widths accepted by the label codec
var LabelWidths = []int{1, 8, 16, 32, 64, 128}

func checkLabelWidth(n int) {
	for _, w := range LabelWidths {
		if w == n {
			return
		}
	}
	shapePanic("label width %d is not one of %v", n, LabelWidths)
}

func encodeBit(one bool) float32 {
	if one {
		return 1 - LabelEpsilon
	}
	return -1 + LabelEpsilon
}

// EncodeLabel writes label into dst, element i holding bit i.
// dst must have one of the LabelWidths up to 64; higher bits of label are dropped.
func EncodeLabel(dst Vector, label uint64) Vector {
	checkLabelWidth(len(dst))
	if len(dst) > 64 {
		shapePanic("EncodeLabel on width %d, use EncodeLabel128", len(dst))
	}
	for i := range dst {
		dst[i] = encodeBit(label>>uint(i)&1 == 1)
	}
	return dst
}

// DecodeLabel reads a label back, treating elements ≥ 0 as one bits
func DecodeLabel(v Vector) uint64 {
	checkLabelWidth(len(v))
	if len(v) > 64 {
		shapePanic("DecodeLabel on width %d, use DecodeLabel128", len(v))
	}
	var label uint64
	for i := range v {
		if v[i] >= 0 {
			label |= 1 << uint(i)
		}
	}
	return label
}

// EncodeLabel128 writes a 128 bit label given as low and high words
func EncodeLabel128(dst Vector, lo, hi uint64) Vector {
	if len(dst) != 128 {
		shapePanic("EncodeLabel128 on width %d", len(dst))
	}
	for i := 0; i < 64; i++ {
		dst[i] = encodeBit(lo>>uint(i)&1 == 1)
		dst[64+i] = encodeBit(hi>>uint(i)&1 == 1)
	}
	return dst
}

// DecodeLabel128 reads a 128 bit label as low and high words
func DecodeLabel128(v Vector) (lo, hi uint64) {
	if len(v) != 128 {
		shapePanic("DecodeLabel128 on width %d", len(v))
	}
	for i := 0; i < 64; i++ {
		if v[i] >= 0 {
			lo |= 1 << uint(i)
		}
		if v[64+i] >= 0 {
			hi |= 1 << uint(i)
		}
	}
	return lo, hi
}
