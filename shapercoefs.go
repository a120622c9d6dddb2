package ssrc

// maxShaperLen bounds the error-feedback order of a noise shaper.
const maxShaperLen = 64

// NoiseShaperCoef is one row of the noise shaper table: the
// error-feedback FIR applied at a given destination rate.
type NoiseShaperCoef struct {
	Fs    int32
	ID    int32
	Name  string
	Len   int
	Coefs [64]float64
}

// Shaper IDs available across rates.
const (
	ShaperLowATH   = 0
	ShaperHighATH  = 1
	ShaperTriangle = 98
)

// NoiseShaperCoefs is the flat shaper table, terminated by a sentinel
// row with Fs < 0. Lookup key is (destination rate, id).
//
// The ATH-weighted shapers push the quantization noise toward the least
// audible part of the spectrum at their rate; the triangular shaper is
// the plain second-order highpass 1 - 2z^-1 + z^-2.
var NoiseShaperCoefs = []NoiseShaperCoef{
	{44100, ShaperLowATH, "Low intensity ATH based noise shaping", 12, [64]float64{
		-1.3584e+00, 6.7326e-01, 5.2365e-01, -5.2079e-01, 1.3189e-01, 1.6610e-01,
		-1.4566e-01, 3.3130e-02, 3.5515e-02, -3.2546e-02, 9.8751e-03, -1.0211e-03,
	}},
	{44100, ShaperHighATH, "High intensity ATH based noise shaping", 20, [64]float64{
		-2.3925e+00, 2.2556e+00, -1.0487e+00, -1.1158e-01, 6.3477e-01, -4.4129e-01,
		8.5176e-02, 1.1191e-01, -1.0902e-01, 3.7714e-02, 1.1312e-02, -2.4584e-02,
		1.3372e-02, -1.7228e-03, -2.6884e-03, 2.2052e-03, -8.0614e-04, 7.3526e-05,
		6.1960e-05, -2.3214e-05,
	}},
	{44100, ShaperTriangle, "Triangular noise shaping", 2, [64]float64{-2, 1}},

	{48000, ShaperLowATH, "Low intensity ATH based noise shaping", 12, [64]float64{
		-1.4236e+00, 7.6673e-01, 4.8341e-01, -5.4386e-01, 1.6321e-01, 1.5503e-01,
		-1.5609e-01, 4.4138e-02, 3.0155e-02, -3.3844e-02, 1.1851e-02, -1.5581e-03,
	}},
	{48000, ShaperHighATH, "High intensity ATH based noise shaping", 20, [64]float64{
		-2.4560e+00, 2.4184e+00, -1.1955e+00, -5.8037e-02, 6.6169e-01, -4.9090e-01,
		1.1651e-01, 1.0287e-01, -1.1864e-01, 4.6410e-02, 7.5956e-03, -2.5540e-02,
		1.5411e-02, -2.7720e-03, -2.4903e-03, 2.4501e-03, -9.9800e-04, 1.3128e-04,
		6.1160e-05, -2.9366e-05,
	}},
	{48000, ShaperTriangle, "Triangular noise shaping", 2, [64]float64{-2, 1}},

	{88200, ShaperLowATH, "Low intensity ATH based noise shaping", 8, [64]float64{
		-1.9007e+00, 1.2485e+00, -1.1323e-01, -2.8749e-01, 1.6616e-01, -1.7708e-02,
		-1.8217e-02, 6.6671e-03,
	}},
	{88200, ShaperTriangle, "Triangular noise shaping", 2, [64]float64{-2, 1}},

	{96000, ShaperLowATH, "Low intensity ATH based noise shaping", 8, [64]float64{
		-1.9262e+00, 1.3102e+00, -1.5597e-01, -2.7861e-01, 1.7767e-01, -2.5544e-02,
		-1.8022e-02, 7.9676e-03,
	}},
	{96000, ShaperTriangle, "Triangular noise shaping", 2, [64]float64{-2, 1}},

	{176400, ShaperTriangle, "Triangular noise shaping", 2, [64]float64{-2, 1}},
	{192000, ShaperTriangle, "Triangular noise shaping", 2, [64]float64{-2, 1}},

	{Fs: -1},
}

// FindNoiseShaper returns the shaper for (dstFs, id), or nil when the
// table has no such row.
func FindNoiseShaper(dstFs, id int32) *NoiseShaperCoef {
	for i := range NoiseShaperCoefs {
		c := &NoiseShaperCoefs[i]
		if c.Fs < 0 {
			break
		}
		if c.Fs == dstFs && c.ID == id {
			return c
		}
	}
	return nil
}
