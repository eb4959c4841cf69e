/*
DESCRIPTION
  options.go provides option functions that can be provided to the SUB
  encoder's constructor NewEncoder.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vobsub

import "github.com/pkg/errors"

// MaxStream is the highest sub-picture stream number.
const MaxStream = 31

var ErrInvalidStream = errors.New("invalid sub-picture stream number")

// Stream is an option that can be passed to NewEncoder to set the
// sub-picture stream number, 0 to MaxStream, written in every packet.
func Stream(n int) func(*Encoder) error {
	return func(e *Encoder) error {
		if n < 0 || n > MaxStream {
			return errors.Wrapf(ErrInvalidStream, "stream %d", n)
		}
		e.stream = n
		e.log.Debug("configured stream", "stream", n)
		return nil
	}
}
