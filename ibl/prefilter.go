package ibl

import (
	"fmt"

	"github.com/chewxy/math32"
)

// DefaultSampleCount is the number of importance samples per output
// texel when none is requested.
const DefaultSampleCount = 1024

type ggxSample struct {
	// half vector in tangent space, z is 'up'
	x, y, z float32
	// mip level to fetch from, derived from the sample's pdf
	lod float32
}

// PrefilterRoughness importance-samples a mip chain with the GGX lobe of
// the given linear roughness and produces one prefiltered cubemap of
// edge length size (0 defaults to the base level's size). numSamples 0
// defaults to DefaultSampleCount. At roughness 0 the filter degenerates
// to a single sample at the mirror direction.
func PrefilterRoughness(chain []*Cubemap, linearRoughness float32, size, numSamples int) (*Cubemap, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: empty mip chain", ErrInvalidParameter)
	}
	if linearRoughness < 0 || linearRoughness > 1 || math32.IsNaN(linearRoughness) {
		return nil, fmt.Errorf("%w: roughness %f outside [0,1]", ErrInvalidParameter, linearRoughness)
	}
	if size == 0 {
		size = chain[0].Dim
	}
	if numSamples == 0 {
		numSamples = DefaultSampleCount
	}
	if numSamples < 0 {
		return nil, fmt.Errorf("%w: sample count %d, must be positive", ErrInvalidParameter, numSamples)
	}

	out, err := NewCubemap(size)
	if err != nil {
		return nil, err
	}

	if linearRoughness == 0 {
		prefilterIdentity(out, chain)
		return out, nil
	}

	samples := generateGGXSamples(numSamples, linearRoughness, chain[0].Dim, len(chain))

	parallelFor(6*size, func(job int) {
		face, py := job/size, job%size
		for px := 0; px < size; px++ {
			nx, ny, nz := normalize(texelDirection(face, px, py, size))
			// N = V = R approximation
			vx, vy, vz := nx, ny, nz

			var upx, upy, upz float32 = 0.0, 0.0, 1.0
			if math32.Abs(nz) >= 0.999 {
				upx, upy, upz = 1.0, 0.0, 0.0
			}
			tx, ty, tz := normalize(cross(upx, upy, upz, nx, ny, nz))
			bx, by, bz := cross(nx, ny, nz, tx, ty, tz)

			var cr, cg, cb float32
			var totalWeight float32
			for _, s := range samples {
				hx, hy, hz := normalize(transform(s.x, s.y, s.z, tx, ty, tz, bx, by, bz, nx, ny, nz))
				vdoth := 2 * dot(vx, vy, vz, hx, hy, hz)
				lx, ly, lz := normalize(vdoth*hx-vx, vdoth*hy-vy, vdoth*hz-vz)

				ndotl := dot(nx, ny, nz, lx, ly, lz)
				if ndotl > 0 {
					sr, sg, sb := sampleChainLod(chain, lx, ly, lz, s.lod)
					cr += sr * ndotl
					cg += sg * ndotl
					cb += sb * ndotl
					totalWeight += ndotl
				}
			}

			if totalWeight > 0 {
				cr /= totalWeight
				cg /= totalWeight
				cb /= totalWeight
			} else {
				// lobe fully below the horizon, fall back to the mirror direction
				cr, cg, cb = chain[0].Sample(nx, ny, nz)
			}
			out.Set(face, px, py, cr, cg, cb)
		}
	})

	out.MakeSeamless()
	return out, nil
}

// prefilterIdentity copies the chain level matching the output size,
// a single sample at the mirror direction per texel.
func prefilterIdentity(out *Cubemap, chain []*Cubemap) {
	src := levelForDim(chain, out.Dim)
	size := out.Dim
	parallelFor(6*size, func(job int) {
		face, y := job/size, job%size
		for x := 0; x < size; x++ {
			rx, ry, rz := normalize(texelDirection(face, x, y, size))
			r, g, b := src.Sample(rx, ry, rz)
			out.Set(face, x, y, r, g, b)
		}
	})
	out.MakeSeamless()
}

func generateHammersleySequence(count int) [][2]float32 {
	samples := make([][2]float32, count)
	for i := 0; i < count; i++ {
		su, sv := hammersley(uint32(i), uint32(count))
		samples[i][0] = su
		samples[i][1] = sv
	}
	return samples
}

func radicalInverseVdC(bits uint32) float32 {
	bits = (bits << 16) | (bits >> 16)
	bits = ((bits & 0x55555555) << 1) | ((bits & 0xAAAAAAAA) >> 1)
	bits = ((bits & 0x33333333) << 2) | ((bits & 0xCCCCCCCC) >> 2)
	bits = ((bits & 0x0F0F0F0F) << 4) | ((bits & 0xF0F0F0F0) >> 4)
	bits = ((bits & 0x00FF00FF) << 8) | ((bits & 0xFF00FF00) >> 8)
	return float32(bits) * 2.3283064365386963e-10 // / 0x100000000
}

func hammersley(i, n uint32) (x, y float32) {
	return float32(i) / float32(n), radicalInverseVdC(i)
}

func importanceSampleGGX(su, sv float32, a float32) (x, y, z float32) {
	phi := 2.0 * math32.Pi * su
	cosTheta := math32.Sqrt((1.0 - sv) / (1.0 + (a*a-1.0)*sv))
	sinTheta := math32.Sqrt(1.0 - cosTheta*cosTheta)

	// from spherical coordinates to cartesian coordinates
	x = math32.Cos(phi) * sinTheta
	y = math32.Sin(phi) * sinTheta
	z = cosTheta

	return
}

func distributionGGX(ndoth, a float32) float32 {
	a2 := a * a
	d := ndoth*ndoth*(a2-1.0) + 1.0
	return a2 / (math32.Pi * d * d)
}

// generateGGXSamples precomputes the tangent-space half vectors of the
// GGX lobe together with the mip level each sample should fetch from.
// The level compares the solid angle covered by one sample against the
// solid angle of one base-level texel; low-pdf samples read coarser
// levels to keep variance bounded.
func generateGGXSamples(count int, linearRoughness float32, baseDim, levels int) []ggxSample {
	seq := generateHammersleySequence(count)
	samples := make([]ggxSample, count)

	saTexel := 4.0 * math32.Pi / (6.0 * float32(baseDim) * float32(baseDim))
	maxLod := float32(levels - 1)

	for i, hs := range seq {
		hx, hy, hz := importanceSampleGGX(hs[0], hs[1], linearRoughness)

		pdf := distributionGGX(hz, linearRoughness) * hz
		var lod float32
		if pdf > 0 {
			saSample := 1.0 / (float32(count) * pdf)
			lod = 0.5 * math32.Log2(saSample/saTexel)
		} else {
			lod = maxLod
		}
		if lod < 0 {
			lod = 0
		} else if lod > maxLod {
			lod = maxLod
		}

		samples[i] = ggxSample{x: hx, y: hy, z: hz, lod: lod}
	}
	return samples
}

// sampleChainLod filters between the two chain levels bracketing lod.
func sampleChainLod(chain []*Cubemap, rx, ry, rz, lod float32) (r, g, b float32) {
	l0 := int(lod)
	if l0 >= len(chain)-1 {
		return chain[len(chain)-1].Sample(rx, ry, rz)
	}
	frac := lod - float32(l0)
	r0, g0, b0 := chain[l0].Sample(rx, ry, rz)
	if frac == 0 {
		return r0, g0, b0
	}
	r1, g1, b1 := chain[l0+1].Sample(rx, ry, rz)
	return r0 + (r1-r0)*frac, g0 + (g1-g0)*frac, b0 + (b1-b0)*frac
}
