package ssrc

import (
	"fmt"
	"strings"
)

// Profile is a named quality preset: DFT filter length, stop-band
// attenuation, guard factor and the sample precision the conversion
// should run at.
type Profile struct {
	Log2DFTFilterLen uint
	Attenuation      float64
	Guard            float64
	DoublePrecision  bool
}

// Profiles are the recognized conversion presets, ordered from most to
// least expensive.
var Profiles = map[string]Profile{
	"insane":    {18, 200, 8.0, true},
	"high":      {16, 170, 4.0, true},
	"long":      {15, 145, 4.0, true},
	"standard":  {14, 145, 2.0, false},
	"short":     {12, 96, 1.0, false},
	"fast":      {10, 96, 1.0, false},
	"lightning": {8, 96, 1.0, false},
}

// LookupProfile resolves a preset by name. Unrecognized names also try
// the custom "log2len,attenuation,guard,{d|f}" syntax.
func LookupProfile(name string) (Profile, error) {
	if p, ok := Profiles[name]; ok {
		return p, nil
	}
	if strings.ContainsRune(name, ',') {
		return ParseProfile(name)
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// ParseProfile parses the custom profile syntax
// "log2len,attenuation,guard,{d|f}", e.g. "14,145,2,f".
func ParseProfile(s string) (Profile, error) {
	var p Profile
	var prec byte
	if _, err := fmt.Sscanf(s, "%d,%f,%f,%c", &p.Log2DFTFilterLen, &p.Attenuation, &p.Guard, &prec); err != nil {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
	switch prec {
	case 'd':
		p.DoublePrecision = true
	case 'f':
		p.DoublePrecision = false
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
	return p, nil
}

// Config returns the converter configuration of the profile at unity
// gain.
func (p Profile) Config() Config {
	return Config{
		Log2DFTFilterLen: p.Log2DFTFilterLen,
		Attenuation:      p.Attenuation,
		Guard:            p.Guard,
		Gain:             1,
	}
}
