package predictor

import (
	"sort"
)

// Isotonic is a non-decreasing piecewise linear map fitted with pool
// adjacent violators. An empty curve is the identity.
type Isotonic struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// FitIsotonic fits y against x. w may be nil for unit weights.
func FitIsotonic(x, y, w []float64) *Isotonic {
	n := len(x)
	if n == 0 {
		return &Isotonic{}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	type block struct {
		xmin, xmax  float64
		sum, weight float64
	}
	blocks := make([]block, 0, n)
	for _, i := range order {
		wi := 1.0
		if w != nil {
			wi = w[i]
		}
		if wi <= 0 {
			continue
		}
		// Equal inputs always share one fitted value.
		if k := len(blocks) - 1; k >= 0 && blocks[k].xmax == x[i] {
			blocks[k].sum += wi * y[i]
			blocks[k].weight += wi
		} else {
			blocks = append(blocks, block{xmin: x[i], xmax: x[i], sum: wi * y[i], weight: wi})
		}
		for len(blocks) > 1 {
			k := len(blocks) - 1
			prev, cur := blocks[k-1], blocks[k]
			if prev.sum/prev.weight <= cur.sum/cur.weight {
				break
			}
			blocks[k-1] = block{
				xmin:   prev.xmin,
				xmax:   cur.xmax,
				sum:    prev.sum + cur.sum,
				weight: prev.weight + cur.weight,
			}
			blocks = blocks[:k]
		}
	}

	iso := &Isotonic{}
	for _, b := range blocks {
		v := b.sum / b.weight
		iso.X = append(iso.X, b.xmin)
		iso.Y = append(iso.Y, v)
		if b.xmax > b.xmin {
			iso.X = append(iso.X, b.xmax)
			iso.Y = append(iso.Y, v)
		}
	}
	return iso
}

// IsIdentity reports whether the curve leaves inputs unchanged.
func (c *Isotonic) IsIdentity() bool {
	return c == nil || len(c.X) == 0
}

// Predict maps p through the curve, interpolating between fitted points and
// clamping outside them.
func (c *Isotonic) Predict(p float64) float64 {
	if c.IsIdentity() {
		return p
	}
	n := len(c.X)
	if p <= c.X[0] {
		return c.Y[0]
	}
	if p >= c.X[n-1] {
		return c.Y[n-1]
	}
	j := sort.SearchFloat64s(c.X, p)
	if c.X[j] == p {
		return c.Y[j]
	}
	x0, x1 := c.X[j-1], c.X[j]
	y0, y1 := c.Y[j-1], c.Y[j]
	return y0 + (y1-y0)*(p-x0)/(x1-x0)
}
