package heightmap

import "math"

// perlin implements 3D Perlin noise with a seeded permutation table.
//
// Construction mirrors pkg/world/noise.go's Perlin type: the same
// permutation-table construction (Fisher-Yates shuffle over an LCG seeded
// from the input seed) and the same fade/lerp/grad3D shape, generalized
// here to the 3D-only field this module needs.
type perlin struct {
	perm [512]int
}

func newPerlin(seed int64) *perlin {
	p := &perlin{}

	var base [256]int
	for i := range base {
		base[i] = i
	}

	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int(uint64(s>>16) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}

	for i := 0; i < 256; i++ {
		p.perm[i] = base[i]
		p.perm[i+256] = base[i]
	}
	return p
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad3D(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if (h & 1) != 0 {
		u = -u
	}
	if (h & 2) != 0 {
		v = -v
	}
	return u + v
}

// noise3D computes 3D Perlin noise at (x, y, z); roughly in [-1, 1].
func (p *perlin) noise3D(x, y, z float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	zi := int(math.Floor(z)) & 255

	xf := x - math.Floor(x)
	yf := y - math.Floor(y)
	zf := z - math.Floor(z)

	u := fade(xf)
	v := fade(yf)
	w := fade(zf)

	aaa := p.perm[p.perm[p.perm[xi]+yi]+zi]
	aba := p.perm[p.perm[p.perm[xi]+yi+1]+zi]
	aab := p.perm[p.perm[p.perm[xi]+yi]+zi+1]
	abb := p.perm[p.perm[p.perm[xi]+yi+1]+zi+1]
	baa := p.perm[p.perm[p.perm[xi+1]+yi]+zi]
	bba := p.perm[p.perm[p.perm[xi+1]+yi+1]+zi]
	bab := p.perm[p.perm[p.perm[xi+1]+yi]+zi+1]
	bbb := p.perm[p.perm[p.perm[xi+1]+yi+1]+zi+1]

	x1 := lerp(u, grad3D(aaa, xf, yf, zf), grad3D(baa, xf-1, yf, zf))
	x2 := lerp(u, grad3D(aba, xf, yf-1, zf), grad3D(bba, xf-1, yf-1, zf))
	y1 := lerp(v, x1, x2)

	x1 = lerp(u, grad3D(aab, xf, yf, zf-1), grad3D(bab, xf-1, yf, zf-1))
	x2 = lerp(u, grad3D(abb, xf, yf-1, zf-1), grad3D(bbb, xf-1, yf-1, zf-1))
	y2 := lerp(v, x1, x2)

	return lerp(w, y1, y2)
}

// octaveNoise3D sums fractal-Brownian-motion octaves of 3D noise.
func (p *perlin) octaveNoise3D(x, y, z float64, octaves int, lacunarity, persistence float64) float64 {
	var total float64
	frequency := 1.0
	amplitude := 1.0
	maxAmplitude := 0.0

	for i := 0; i < octaves; i++ {
		total += p.noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}

	return total / maxAmplitude
}
