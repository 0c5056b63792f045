package ibl

import (
	"fmt"
	"math"
)

// DefaultSHBands is the band count used when none is requested,
// 9 coefficients.
const DefaultSHBands = 3

// SHCoefficients is the truncated SH expansion of cubemap radiance, one
// RGB triple per basis function, bands² entries ordered by shIndex.
type SHCoefficients [][3]float32

func (sh SHCoefficients) Bands() int {
	bands := 0
	for bands*bands < len(sh) {
		bands++
	}
	return bands
}

func shIndex(m, l int) int {
	return l*(l+1) + m
}

// shNormalizations returns the K(l,m) constants of the real SH basis,
// including the sqrt(2) factor of the m != 0 functions.
func shNormalizations(bands int) []float32 {
	norm := make([]float32, bands*bands)
	for l := 0; l < bands; l++ {
		norm[shIndex(0, l)] = float32(math.Sqrt(float64(2*l+1) / (4 * math.Pi)))
		for m := 1; m <= l; m++ {
			// (l-m)!/(l+m)!
			ratio := 1.0
			for i := l - m + 1; i <= l+m; i++ {
				ratio /= float64(i)
			}
			k := float32(math.Sqrt(2 * float64(2*l+1) / (4 * math.Pi) * ratio))
			norm[shIndex(m, l)] = k
			norm[shIndex(-m, l)] = k
		}
	}
	return norm
}

// evalSHBasis evaluates all bands² normalized basis functions for the
// unit direction (x, y, z) into out. The associated Legendre terms use
// the standard recurrences; the sin^m(theta)*{cos,sin}(m*phi) factors
// come from the real and imaginary parts of (x+iy)^m, which avoids any
// trigonometry at the poles.
func evalSHBasis(out []float32, norm []float32, bands int, x, y, z float32) {
	pml2, pml1 := float32(0), float32(1)
	out[shIndex(0, 0)] = pml1
	for l := 1; l < bands; l++ {
		pml := (float32(2*l-1)*pml1*z - float32(l-1)*pml2) / float32(l)
		pml2, pml1 = pml1, pml
		out[shIndex(0, l)] = pml
	}

	pmm := float32(1)
	for m := 1; m < bands; m++ {
		pmm = float32(1-2*m) * pmm
		pml2 = pmm
		out[shIndex(-m, m)] = pml2
		out[shIndex(m, m)] = pml2
		if m+1 < bands {
			pml1 = float32(2*m+1) * pmm * z
			out[shIndex(-m, m+1)] = pml1
			out[shIndex(m, m+1)] = pml1
			for l := m + 2; l < bands; l++ {
				pml := (float32(2*l-1)*pml1*z - float32(l+m-1)*pml2) / float32(l-m)
				pml2, pml1 = pml1, pml
				out[shIndex(-m, l)] = pml
				out[shIndex(m, l)] = pml
			}
		}
	}

	cm, sm := x, y
	for m := 1; m < bands; m++ {
		for l := m; l < bands; l++ {
			out[shIndex(-m, l)] *= sm
			out[shIndex(m, l)] *= cm
		}
		cm, sm = x*cm-y*sm, x*sm+y*cm
	}

	for i := range out {
		out[i] *= norm[i]
	}
}

// ProjectSH integrates the cubemap's radiance against the SH basis up
// to the given band count, weighting every texel by its solid angle.
// The result depends only on the texel values and the band count.
func ProjectSH(cm *Cubemap, bands int) (SHCoefficients, error) {
	if bands < 1 {
		return nil, fmt.Errorf("%w: sh band count %d, must be at least 1", ErrInvalidParameter, bands)
	}

	n := bands * bands
	norm := shNormalizations(bands)
	dim := cm.Dim

	// one partial sum per face, merged in face order for determinism
	partials := make([][]float64, 6)
	parallelFor(6, func(face int) {
		acc := make([]float64, n*3)
		basis := make([]float32, n)
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				dx, dy, dz := normalize(texelDirection(face, x, y, dim))
				sa := TexelSolidAngle(x, y, dim)
				evalSHBasis(basis, norm, bands, dx, dy, dz)
				r, g, b := cm.At(face, x, y)
				for i := 0; i < n; i++ {
					w := float64(basis[i] * sa)
					acc[i*3+0] += w * float64(r)
					acc[i*3+1] += w * float64(g)
					acc[i*3+2] += w * float64(b)
				}
			}
		}
		partials[face] = acc
	})

	sh := make(SHCoefficients, n)
	for i := 0; i < n; i++ {
		var r, g, b float64
		for face := 0; face < 6; face++ {
			r += partials[face][i*3+0]
			g += partials[face][i*3+1]
			b += partials[face][i*3+2]
		}
		sh[i] = [3]float32{float32(r), float32(g), float32(b)}
	}
	return sh, nil
}

// cosineLobeFactor is the SH transfer function of the clamped cosine
// lobe for band l: pi, 2pi/3, then zero for odd and a decaying
// alternating series for even bands.
func cosineLobeFactor(l int) float32 {
	switch {
	case l == 0:
		return math.Pi
	case l == 1:
		return 2 * math.Pi / 3
	case l%2 == 1:
		return 0
	}
	// 2pi * (-1)^(l/2-1)/((l+2)(l-1)) * l!/(2^l (l/2)!²)
	sign := 1.0
	if (l/2)%2 == 0 {
		sign = -1.0
	}
	fact := 1.0
	for i := 2; i <= l; i++ {
		fact *= float64(i)
	}
	half := 1.0
	for i := 2; i <= l/2; i++ {
		half *= float64(i)
	}
	a := 2 * math.Pi * sign / float64((l+2)*(l-1)) * fact / (math.Exp2(float64(l)) * half * half)
	return float32(a)
}

// ConvolveIrradiance rescales raw radiance coefficients by the per-band
// cosine-lobe transfer factors, yielding coefficients that reconstruct
// Lambertian irradiance. The input is left untouched.
func ConvolveIrradiance(sh SHCoefficients) SHCoefficients {
	bands := sh.Bands()
	out := make(SHCoefficients, len(sh))
	for l := 0; l < bands; l++ {
		a := cosineLobeFactor(l)
		for m := -l; m <= l; m++ {
			i := shIndex(m, l)
			out[i] = [3]float32{sh[i][0] * a, sh[i][1] * a, sh[i][2] * a}
		}
	}
	return out
}

// ScaleForShader folds the basis normalization constants and the 1/pi
// Lambertian normalization into the coefficients, so a consumer can
// evaluate irradiance as a plain polynomial in the normal direction.
// The input is left untouched.
func ScaleForShader(sh SHCoefficients) SHCoefficients {
	bands := sh.Bands()
	norm := shNormalizations(bands)
	out := make(SHCoefficients, len(sh))
	for i := range sh {
		s := norm[i] / math.Pi
		out[i] = [3]float32{sh[i][0] * s, sh[i][1] * s, sh[i][2] * s}
	}
	return out
}
