/*
DESCRIPTION
  config.go provides the configuration of a subtitle conversion: input and
  output, the stream selection and the conversion parameters passed to the
  codecs.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for a subtitle
// conversion.
package config

import (
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitle/caption"
)

// Config provides the parameters of one conversion. Default values are
// defined in variables.go and set by New and Validate. Validate can't tell an
// unset Stream or AlphaCrop from 0, so a Config built without New selects
// sub-picture stream 0 and crops no alpha.
type Config struct {
	// Logger holds an implementation of the Logger interface.
	// This must be set for Update and Validate to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	Suppress bool // Holds logger suppression state.

	InputPath  string // Stream to read; the IDX or IFO sidecar is found next to it.
	OutputPath string // Stream to write; sidecars are written next to it.

	// InputFormat forces the input format. If empty the format is sniffed from
	// the file name and first bytes. Valid values are listed in codecutil.
	InputFormat string

	// OutputFormat defines the format written. Valid values are listed in
	// codecutil.
	OutputFormat string

	// Stream selects the VobSub sub-picture stream read, from 0 to 31, or -1
	// for the first stream found.
	Stream int

	// OutputStream is the VobSub sub-picture stream number written.
	OutputStream uint

	Language  string  // Two letter language code written to sidecars.
	FrameRate float64 // Video frame rate signalled in PGS output.

	CropOffsetY    uint          // Lines cropped from the top and bottom of the screen.
	AlphaCrop      uint          // Palette alpha below which an entry is forced transparent.
	AlphaThreshold uint          // Alpha below which a pixel is background when quantising to 4 colours.
	BT709          bool          // Use BT.709 instead of BT.601 coefficients.
	SwapCrCb       bool          // Swap Cr and Cb of decoded palettes.
	MergeDiff      time.Duration // Maximum gap between two PGS captions merged into one.
	AlphaFallback  bool          // Reuse the previous alpha set for fully transparent captions.
	ForcedOnly     bool          // Only export forced captions.

	// Workers bounds the number of captions decoded and encoded at once.
	Workers uint
}

// New returns a Config logging to l with every variable at its default.
func New(l logging.Logger) Config {
	return Config{
		Logger:         l,
		LogLevel:       defaultVerbosity,
		OutputFormat:   defaultOutputFormat,
		Stream:         defaultStream,
		Language:       defaultLanguage,
		FrameRate:      defaultFrameRate,
		AlphaCrop:      defaultAlphaCrop,
		AlphaThreshold: defaultAlphaThreshold,
		MergeDiff:      defaultMergeDiff,
		Workers:        defaultWorkers,
	}
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// Params returns the codec conversion parameters held by c.
func (c *Config) Params() caption.Params {
	return caption.Params{
		CropOffsetY:    int(c.CropOffsetY),
		AlphaCrop:      int(c.AlphaCrop),
		AlphaThreshold: int(c.AlphaThreshold),
		BT709:          c.BT709,
		SwapCrCb:       c.SwapCrCb,
		MergeDiff:      c.MergeDiff.Milliseconds() * caption.PTSFrequency / 1000,
		AlphaFallback:  c.AlphaFallback,
		ForcedOnly:     c.ForcedOnly,
	}
}
