package jpegb

// Fixed-point inverse and forward DCT, following the Independent JPEG
// Group's integer transforms (jidctint.c / jfdctint.c). All multipliers
// are scaled by 1<<constBits; intermediate results after the first
// inverse pass are held at pass1Bits of extra precision and saturated to
// 16 bits, matching the packed 16-bit arithmetic of the original
// implementation bit for bit.

const (
	constBits = 13
	pass1Bits = 2
)

const (
	fix0298631336 = 2446
	fix0390180644 = 3196
	fix0541196100 = 4433
	fix0765366865 = 6270
	fix0899976223 = 7373
	fix1175875602 = 9633
	fix1501321110 = 12299
	fix1847759065 = 15137
	fix1961570560 = 16069
	fix2053119869 = 16819
	fix2562915447 = 20995
	fix3072711026 = 25172
)

// sat16 clamps v to the int16 range.
func sat16(v int32) int16 {
	if v < -32768 {
		return -32768
	}

	if v > 32767 {
		return 32767
	}

	return int16(v)
}

// pixel narrows a descaled sample to [-128, 127] and level-shifts it into
// the unsigned 8-bit range.
func pixel(v int32) byte {
	if v < -128 {
		return 0
	}

	if v > 127 {
		return 255
	}

	return byte(v + 128)
}

// idct performs the 2D 8x8 inverse DCT on block and writes the
// level-shifted samples to out, which must hold 64 bytes in row-major
// order. Coefficient values are expected to be within the int16 range.
func idct(block *[64]int32, out []byte) {
	// A block with no AC energy descales to a single flat value. The
	// arithmetic below mirrors the two full passes, including the 16-bit
	// saturation between them, so the result is identical.
	ac := int32(0)
	for i := 1; i < 64; i++ {
		ac |= block[i]
	}

	if ac == 0 {
		t := sat16((block[0]<<constBits + 1<<(constBits-pass1Bits-1)) >> (constBits - pass1Bits))
		z := t + 1<<(pass1Bits+2)
		p := pixel((int32(z) << constBits) >> (constBits + pass1Bits + 3))

		for i := 0; i < 64; i++ {
			out[i] = p
		}

		return
	}

	var tmp [64]int16

	// Pass 1: process columns, leaving results scaled up by a factor of
	// 1<<pass1Bits.
	for x := 0; x < 8; x++ {
		c0 := block[x]
		c1 := block[x+8*1]
		c2 := block[x+8*2]
		c3 := block[x+8*3]
		c4 := block[x+8*4]
		c5 := block[x+8*5]
		c6 := block[x+8*6]
		c7 := block[x+8*7]

		// Even part.
		z1 := (c2 + c6) * fix0541196100
		t2 := z1 + c2*fix0765366865
		t3 := z1 - c6*fix1847759065

		// Fudge factor for the descale at the end of this pass.
		z2 := c0<<constBits + 1<<(constBits-pass1Bits-1)
		z3 := c4 << constBits

		t0 := z2 + z3
		t1 := z2 - z3

		t10 := t0 + t2
		t13 := t0 - t2
		t11 := t1 + t3
		t12 := t1 - t3

		// Odd part. The two pair sums wrap at 16 bits, as in the packed
		// arithmetic this mirrors.
		zA := int32(int16(c7) + int16(c3))
		zB := int32(int16(c5) + int16(c1))

		z5 := (zA + zB) * fix1175875602
		zA = zA*-fix1961570560 + z5
		zB = zB*-fix0390180644 + z5

		z4 := (c7 + c1) * -fix0899976223
		o0 := c7*fix0298631336 + z4 + zA
		o3 := c1*fix1501321110 + z4 + zB

		z4 = (c5 + c3) * -fix2562915447
		o1 := c5*fix2053119869 + z4 + zB
		o2 := c3*fix3072711026 + z4 + zA

		const shift = constBits - pass1Bits
		tmp[x+8*0] = sat16((t10 + o3) >> shift)
		tmp[x+8*7] = sat16((t10 - o3) >> shift)
		tmp[x+8*1] = sat16((t11 + o2) >> shift)
		tmp[x+8*6] = sat16((t11 - o2) >> shift)
		tmp[x+8*2] = sat16((t12 + o1) >> shift)
		tmp[x+8*5] = sat16((t12 - o1) >> shift)
		tmp[x+8*3] = sat16((t13 + o0) >> shift)
		tmp[x+8*4] = sat16((t13 - o0) >> shift)
	}

	// Pass 2: process rows, removing the pass-1 scaling and descaling to
	// final samples.
	for y := 0; y < 8; y++ {
		y0 := y * 8
		v0 := tmp[y0+0]
		v1 := tmp[y0+1]
		v2 := tmp[y0+2]
		v3 := tmp[y0+3]
		v4 := tmp[y0+4]
		v5 := tmp[y0+5]
		v6 := tmp[y0+6]
		v7 := tmp[y0+7]

		// Even part. The rounding fudge is added in 16-bit arithmetic
		// before widening.
		e := v0 + 1<<(pass1Bits+2)
		t0 := int32(e+v4) << constBits
		t1 := int32(e-v4) << constBits

		z1 := (int32(v2) + int32(v6)) * fix0541196100
		t2 := z1 + int32(v2)*fix0765366865
		t3 := z1 - int32(v6)*fix1847759065

		t10 := t0 + t2
		t13 := t0 - t2
		t11 := t1 + t3
		t12 := t1 - t3

		// Odd part.
		zA := int32(v7 + v3)
		zB := int32(v5 + v1)

		z5 := (zA + zB) * fix1175875602
		zA = zA*-fix1961570560 + z5
		zB = zB*-fix0390180644 + z5

		z4 := (int32(v7) + int32(v1)) * -fix0899976223
		o0 := int32(v7)*fix0298631336 + z4 + zA
		o3 := int32(v1)*fix1501321110 + z4 + zB

		z4 = (int32(v5) + int32(v3)) * -fix2562915447
		o1 := int32(v5)*fix2053119869 + z4 + zB
		o2 := int32(v3)*fix3072711026 + z4 + zA

		const shift = constBits + pass1Bits + 3
		out[y0+0] = pixel((t10 + o3) >> shift)
		out[y0+7] = pixel((t10 - o3) >> shift)
		out[y0+1] = pixel((t11 + o2) >> shift)
		out[y0+6] = pixel((t11 - o2) >> shift)
		out[y0+2] = pixel((t12 + o1) >> shift)
		out[y0+5] = pixel((t12 - o1) >> shift)
		out[y0+3] = pixel((t13 + o0) >> shift)
		out[y0+4] = pixel((t13 - o0) >> shift)
	}
}

// fdct performs the 2D 8x8 forward DCT on 64 row-major samples, writing
// coefficients scaled up by a factor of 8. It is the inverse transform's
// counterpart and exists mainly so the pair can be validated against each
// other.
func fdct(samples []byte, coeffs *[64]int32) {
	// Pass 1: process rows, scaling results up by 1<<pass1Bits.
	for y := 0; y < 8; y++ {
		y0 := y * 8
		s0 := int32(samples[y0+0])
		s1 := int32(samples[y0+1])
		s2 := int32(samples[y0+2])
		s3 := int32(samples[y0+3])
		s4 := int32(samples[y0+4])
		s5 := int32(samples[y0+5])
		s6 := int32(samples[y0+6])
		s7 := int32(samples[y0+7])

		// Even part.
		a0 := s0 + s7
		a1 := s1 + s6
		a2 := s2 + s5
		a3 := s3 + s4

		t10 := a0 + a3
		t12 := a0 - a3
		t11 := a1 + a2
		t13 := a1 - a2

		d0 := s0 - s7
		d1 := s1 - s6
		d2 := s2 - s5
		d3 := s3 - s4

		// The level shift of all 64 input samples folds into the DC term.
		coeffs[y0+0] = (t10 + t11 - 8*128) << pass1Bits
		coeffs[y0+4] = (t10 - t11) << pass1Bits

		z1 := (t12+t13)*fix0541196100 + 1<<(constBits-pass1Bits-1)
		coeffs[y0+2] = (z1 + t12*fix0765366865) >> (constBits - pass1Bits)
		coeffs[y0+6] = (z1 - t13*fix1847759065) >> (constBits - pass1Bits)

		// Odd part.
		t12 = d0 + d2
		t13 = d1 + d3

		z1 = (t12+t13)*fix1175875602 + 1<<(constBits-pass1Bits-1)
		t12 = t12*-fix0390180644 + z1
		t13 = t13*-fix1961570560 + z1

		z1 = (d0 + d3) * -fix0899976223
		o0 := d0*fix1501321110 + z1 + t12
		o3 := d3*fix0298631336 + z1 + t13

		z1 = (d1 + d2) * -fix2562915447
		o1 := d1*fix3072711026 + z1 + t13
		o2 := d2*fix2053119869 + z1 + t12

		coeffs[y0+1] = o0 >> (constBits - pass1Bits)
		coeffs[y0+3] = o1 >> (constBits - pass1Bits)
		coeffs[y0+5] = o2 >> (constBits - pass1Bits)
		coeffs[y0+7] = o3 >> (constBits - pass1Bits)
	}

	// Pass 2: process columns, removing the pass-1 scaling but keeping an
	// overall factor of 8.
	for x := 0; x < 8; x++ {
		a0 := coeffs[x+8*0] + coeffs[x+8*7]
		a1 := coeffs[x+8*1] + coeffs[x+8*6]
		a2 := coeffs[x+8*2] + coeffs[x+8*5]
		a3 := coeffs[x+8*3] + coeffs[x+8*4]

		t10 := a0 + a3 + 1<<(pass1Bits-1)
		t12 := a0 - a3
		t11 := a1 + a2
		t13 := a1 - a2

		d0 := coeffs[x+8*0] - coeffs[x+8*7]
		d1 := coeffs[x+8*1] - coeffs[x+8*6]
		d2 := coeffs[x+8*2] - coeffs[x+8*5]
		d3 := coeffs[x+8*3] - coeffs[x+8*4]

		coeffs[x+8*0] = (t10 + t11) >> pass1Bits
		coeffs[x+8*4] = (t10 - t11) >> pass1Bits

		z1 := (t12+t13)*fix0541196100 + 1<<(constBits+pass1Bits-1)
		coeffs[x+8*2] = (z1 + t12*fix0765366865) >> (constBits + pass1Bits)
		coeffs[x+8*6] = (z1 - t13*fix1847759065) >> (constBits + pass1Bits)

		t12 = d0 + d2
		t13 = d1 + d3

		z1 = (t12+t13)*fix1175875602 + 1<<(constBits-pass1Bits-1)
		t12 = t12*-fix0390180644 + z1
		t13 = t13*-fix1961570560 + z1

		z1 = (d0 + d3) * -fix0899976223
		o0 := d0*fix1501321110 + z1 + t12
		o3 := d3*fix0298631336 + z1 + t13

		z1 = (d1 + d2) * -fix2562915447
		o1 := d1*fix3072711026 + z1 + t13
		o2 := d2*fix2053119869 + z1 + t12

		coeffs[x+8*1] = o0 >> (constBits + pass1Bits)
		coeffs[x+8*3] = o1 >> (constBits + pass1Bits)
		coeffs[x+8*5] = o2 >> (constBits + pass1Bits)
		coeffs[x+8*7] = o3 >> (constBits + pass1Bits)
	}
}
