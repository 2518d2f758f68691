package alac

import "errors"

var (
	errInvalidCookie      = errors.New("alac: invalid magic cookie")
	errUnsupportedVersion = errors.New("alac: unsupported compatible version")
	errBitDepth           = errors.New("alac: unsupported bit depth")
	errNoALACTrack        = errors.New("alac: no ALAC track found in container")
	errNoStsz             = errors.New("alac: no stsz box")
	errInvalidStsz        = errors.New("alac: invalid stsz payload")
)
