/*
DESCRIPTION
  options.go provides option functions that can be provided to the PGS
  encoder's constructor NewEncoder.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pgs

import "github.com/pkg/errors"

// Frame rate codes carried in compositions.
const (
	Rate23976 = 0x10
	Rate24    = 0x20
	Rate25    = 0x30
	Rate2997  = 0x40
	Rate50    = 0x60
	Rate5994  = 0x70
)

const defaultFrameRate = Rate23976

var ErrInvalidRate = errors.New("invalid frame rate code")

// FrameRateCode returns the composition frame rate code closest to fps.
func FrameRateCode(fps float64) (byte, error) {
	switch {
	case fps <= 0:
		return 0, errors.Wrapf(ErrInvalidRate, "%v fps", fps)
	case fps < 23.988:
		return Rate23976, nil
	case fps < 24.5:
		return Rate24, nil
	case fps < 27.5:
		return Rate25, nil
	case fps < 40:
		return Rate2997, nil
	case fps < 55:
		return Rate50, nil
	case fps < 61:
		return Rate5994, nil
	default:
		return 0, errors.Wrapf(ErrInvalidRate, "%v fps", fps)
	}
}

// FrameRate is an option that can be passed to NewEncoder to set the frame
// rate code written in every composition.
func FrameRate(code byte) func(*Encoder) error {
	return func(e *Encoder) error {
		switch code {
		case Rate23976, Rate24, Rate25, Rate2997, Rate50, Rate5994:
			e.frameRate = code
			e.log.Debug("configured frame rate", "code", code)
			return nil
		default:
			return errors.Wrapf(ErrInvalidRate, "code 0x%02x", code)
		}
	}
}
