/*
DESCRIPTION
  convert.go provides the Converter, which reads a subtitle stream,
  decodes its captions and writes them in another format.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package convert provides conversion between the bitmap subtitle formats:
// format detection, demultiplexing with sidecar files, parallel caption
// decoding and encoding, and output writing.
package convert

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/config"
)

// Converter converts subtitle streams using the configuration it was
// created with.
type Converter struct {
	cfg      config.Config
	progress caption.Progress
}

// New returns a Converter for the configuration c, which is validated.
// c.Logger must be set.
func New(c config.Config, progress caption.Progress) (*Converter, error) {
	if c.Logger == nil {
		return nil, errors.New("no logger in config")
	}
	err := c.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "could not validate config")
	}
	return &Converter{cfg: c, progress: progress}, nil
}

// Config returns a copy of the converter's configuration.
func (cv *Converter) Config() config.Config { return cv.cfg }

// Run converts the stream at the configured input path into the configured
// output format and path. The warnings of every stage are returned, also
// when an error stops the conversion.
func (cv *Converter) Run(ctx context.Context) (caption.Log, error) {
	s, err := cv.Read(ctx, cv.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	log := s.Result.Log

	caps, bms, warns, err := cv.Decode(ctx, s)
	log.Add(warns...)
	if err != nil {
		return log, err
	}

	err = cv.Write(ctx, cv.cfg.OutputPath, cv.cfg.OutputFormat, caps, bms, s.CLUT)
	if err != nil {
		return log, err
	}
	cv.cfg.Logger.Info("converted stream", "input", cv.cfg.InputPath, "output", cv.cfg.OutputPath, "captions", len(caps), "warnings", log.String())
	return log, nil
}
