package noise

import "math"

// Simplex implements seeded 2D/3D simplex noise and its fractal (octave)
// sums. The permutation table is built from a seeded
// Fisher-Yates shuffle over [0,255] duplicated to length 512 so index
// look-ups never need to wrap modulo 256 by hand.
type Simplex struct {
	perm    [512]int
	permMod [512]int // perm[i] % len(grad3), precomputed

	octaves     int
	persistence float64
	scale       float64
}

// grad2 are the 8 standard 2D gradient vectors used by simplex noise.
var grad2 = [8][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

// grad3 are the 12 standard 3D gradient vectors (edge midpoints of a cube).
var grad3 = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

const (
	f2 = 0.5 * (1.7320508075688772 - 1) // (sqrt(3)-1)/2
	g2 = (3 - 1.7320508075688772) / 6
	f3 = 1.0 / 3.0
	g3 = 1.0 / 6.0
)

// NewSimplex builds a simplex noise generator seeded by r, with the given
// fractal sum parameters: octaves layers summed with the given persistence
// (amplitude falloff per octave) at the given base scale (frequency
// multiplier applied to input coordinates before the first octave).
func NewSimplex(r *Random, octaves int, persistence, scale float64) *Simplex {
	s := &Simplex{octaves: octaves, persistence: persistence, scale: scale}
	p := make([]int, 256)
	for i := range p {
		p[i] = i
	}
	r.Shuffle(p)
	for i := 0; i < 512; i++ {
		s.perm[i] = p[i&255]
		s.permMod[i] = s.perm[i] % 12
	}
	return s
}

// Noise2D returns simplex noise at (x,y), in [-1,1] ± a small epsilon.
func (s *Simplex) Noise2D(x, y float64) float64 {
	skew := (x + y) * f2
	i := math.Floor(x + skew)
	j := math.Floor(y + skew)
	unskew := (i + j) * g2
	x0 := x - (i - unskew)
	y0 := y - (j - unskew)

	var i1, j1 int
	if x0 > y0 {
		i1, j1 = 1, 0
	} else {
		i1, j1 = 0, 1
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1 + 2*g2
	y2 := y0 - 1 + 2*g2

	ii := int(i) & 255
	jj := int(j) & 255

	n0 := s.corner2(ii, jj, x0, y0)
	n1 := s.corner2(ii+i1, jj+j1, x1, y1)
	n2 := s.corner2(ii+1, jj+1, x2, y2)

	return 70 * (n0 + n1 + n2)
}

func (s *Simplex) corner2(ii, jj int, x, y float64) float64 {
	t := 0.5 - x*x - y*y
	if t < 0 {
		return 0
	}
	gi := s.permMod[ii+s.perm[jj&511]&511]
	g := grad2[gi%8]
	t *= t
	return t * t * (g[0]*x + g[1]*y)
}

// Noise3D returns simplex noise at (x,y,z), in [-1,1] ± a small epsilon.
func (s *Simplex) Noise3D(x, y, z float64) float64 {
	skew := (x + y + z) * f3
	i := math.Floor(x + skew)
	j := math.Floor(y + skew)
	k := math.Floor(z + skew)
	unskew := (i + j + k) * g3
	x0 := x - (i - unskew)
	y0 := y - (j - unskew)
	z0 := z - (k - unskew)

	var i1, j1, k1, i2, j2, k2 int
	switch {
	case x0 >= y0 && y0 >= z0:
		i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 1, 0
	case x0 >= z0 && z0 >= y0:
		i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 0, 1
	case z0 >= x0 && x0 >= y0:
		i1, j1, k1, i2, j2, k2 = 0, 0, 1, 1, 0, 1
	case z0 >= y0 && y0 >= x0:
		i1, j1, k1, i2, j2, k2 = 0, 0, 1, 0, 1, 1
	case y0 >= z0 && z0 >= x0:
		i1, j1, k1, i2, j2, k2 = 0, 1, 0, 0, 1, 1
	default:
		i1, j1, k1, i2, j2, k2 = 0, 1, 0, 1, 1, 0
	}

	x1, y1, z1 := x0-float64(i1)+g3, y0-float64(j1)+g3, z0-float64(k1)+g3
	x2, y2, z2 := x0-float64(i2)+2*g3, y0-float64(j2)+2*g3, z0-float64(k2)+2*g3
	x3, y3, z3 := x0-1+3*g3, y0-1+3*g3, z0-1+3*g3

	ii, jj, kk := int(i)&255, int(j)&255, int(k)&255

	n0 := s.corner3(ii, jj, kk, x0, y0, z0)
	n1 := s.corner3(ii+i1, jj+j1, kk+k1, x1, y1, z1)
	n2 := s.corner3(ii+i2, jj+j2, kk+k2, x2, y2, z2)
	n3 := s.corner3(ii+1, jj+1, kk+1, x3, y3, z3)

	return 32 * (n0 + n1 + n2 + n3)
}

func (s *Simplex) corner3(ii, jj, kk int, x, y, z float64) float64 {
	t := 0.6 - x*x - y*y - z*z
	if t < 0 {
		return 0
	}
	gi := s.permMod[ii+s.perm[(jj+s.perm[kk&511])&511]&511]
	g := grad3[gi]
	t *= t
	return t * t * (g[0]*x + g[1]*y + g[2]*z)
}

// Fractal2D sums s.octaves layers of Noise2D at (x*scale, z*scale), halving
// amplitude by persistence and doubling frequency each octave.
func (s *Simplex) Fractal2D(x, z float64) float64 {
	var sum, amp, freq, ampSum float64
	amp, freq = 1, s.scale
	for o := 0; o < s.octaves; o++ {
		sum += s.Noise2D(x*freq, z*freq) * amp
		ampSum += amp
		amp *= s.persistence
		freq *= 2
	}
	if ampSum == 0 {
		return 0
	}
	return sum / ampSum
}

// Fractal3D sums s.octaves layers of Noise3D at (x*scale, y*scale, z*scale).
func (s *Simplex) Fractal3D(x, y, z float64) float64 {
	var sum, amp, freq, ampSum float64
	amp, freq = 1, s.scale
	for o := 0; o < s.octaves; o++ {
		sum += s.Noise3D(x*freq, y*freq, z*freq) * amp
		ampSum += amp
		amp *= s.persistence
		freq *= 2
	}
	if ampSum == 0 {
		return 0
	}
	return sum / ampSum
}

// Grid3D evaluates Fractal3D over a dense w×h×d grid anchored at world
// offset (ox, oy, oz), so the generation pipeline can precompute a whole
// column's noise field once per chunk rather than per-cell.
func (s *Simplex) Grid3D(w, h, d int, ox, oy, oz int64) [][][]float64 {
	out := make([][][]float64, w)
	for x := 0; x < w; x++ {
		out[x] = make([][]float64, d)
		for z := 0; z < d; z++ {
			out[x][z] = make([]float64, h)
			for y := 0; y < h; y++ {
				out[x][z][y] = s.Fractal3D(float64(ox+int64(x)), float64(oy+int64(y)), float64(oz+int64(z)))
			}
		}
	}
	return out
}

// Remap01 maps a [-1,1]-ranged noise sample into [0,1]. Callers that need a
// unipolar signal (e.g. threshold masks) must remap explicitly;
// Noise2D/Noise3D themselves are never implicitly rescaled.
func Remap01(v float64) float64 { return (v + 1) / 2 }
