package ibl

// NumMipLevels returns the number of levels in a full chain for the
// given base edge length: floor(log2(dim)) + 1, down to edge length 1.
func NumMipLevels(dim int) int {
	levels := 1
	for dim > 1 {
		dim /= 2
		levels++
	}
	return levels
}

// BuildMipChain builds the full mip pyramid under a base cubemap by
// repeated 2x2 box filtering, one level per halving until edge length 1.
// Every level gets its own seamless border pass; the result is
// deterministic for a given base.
func BuildMipChain(base *Cubemap) ([]*Cubemap, error) {
	chain := make([]*Cubemap, 0, NumMipLevels(base.Dim))
	chain = append(chain, base)

	for chain[len(chain)-1].Dim > 1 {
		next, err := downsample(chain[len(chain)-1])
		if err != nil {
			return nil, err
		}
		chain = append(chain, next)
	}
	return chain, nil
}

func downsample(src *Cubemap) (*Cubemap, error) {
	dim := src.Dim / 2
	out, err := NewCubemap(dim)
	if err != nil {
		return nil, err
	}

	parallelFor(6, func(face int) {
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				r0, g0, b0 := src.At(face, 2*x, 2*y)
				r1, g1, b1 := src.At(face, 2*x+1, 2*y)
				r2, g2, b2 := src.At(face, 2*x, 2*y+1)
				r3, g3, b3 := src.At(face, 2*x+1, 2*y+1)
				out.Set(face, x, y, (r0+r1+r2+r3)*0.25, (g0+g1+g2+g3)*0.25, (b0+b1+b2+b3)*0.25)
			}
		}
	})

	out.MakeSeamless()
	return out, nil
}

// levelForDim returns the chain level whose edge length matches dim, or
// the closest coarser level when dim falls between levels.
func levelForDim(chain []*Cubemap, dim int) *Cubemap {
	for _, cm := range chain {
		if cm.Dim <= dim {
			return cm
		}
	}
	return chain[len(chain)-1]
}
