package ssrc

import "errors"

// Errors reported at stage construction or by illegal use of the
// push/pull adapter.
var (
	// ErrUnsupportedRatio indicates a source/destination rate pair whose
	// oversampled grid is not divisible by 2 or 3.
	ErrUnsupportedRatio = errors.New("ssrc: unsupported resampling ratio")

	// ErrUnknownProfile indicates an unrecognized conversion profile name.
	ErrUnknownProfile = errors.New("ssrc: unknown conversion profile")

	// ErrUnknownDither indicates a (rate, id) pair with no noise shaper.
	ErrUnknownDither = errors.New("ssrc: no noise shaper for this rate and id")

	// ErrMatrixShape indicates a mix matrix whose dimensions do not match
	// the stream.
	ErrMatrixShape = errors.New("ssrc: mix matrix shape mismatch")

	// ErrInvalidBitDepth indicates an unsupported output quantization.
	ErrInvalidBitDepth = errors.New("ssrc: invalid bit depth")

	// ErrBadState indicates an illegal state transition of the push/pull
	// adapter.
	ErrBadState = errors.New("ssrc: operation not valid in this state")
)
