/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/container/pgs"
	"github.com/ausocean/subtitle/container/vobsub"
)

// Config map Keys.
const (
	KeyAlphaCrop      = "AlphaCrop"
	KeyAlphaFallback  = "AlphaFallback"
	KeyAlphaThreshold = "AlphaThreshold"
	KeyBT709          = "BT709"
	KeyCropOffsetY    = "CropOffsetY"
	KeyForcedOnly     = "ForcedOnly"
	KeyFrameRate      = "FrameRate"
	KeyInputFormat    = "InputFormat"
	KeyInputPath      = "InputPath"
	KeyLanguage       = "Language"
	KeyLogging        = "logging"
	KeyMergeDiff      = "MergeDiff"
	KeyOutputFormat   = "OutputFormat"
	KeyOutputPath     = "OutputPath"
	KeyOutputStream   = "OutputStream"
	KeyStream         = "Stream"
	KeySuppress       = "Suppress"
	KeySwapCrCb       = "SwapCrCb"
	KeyWorkers        = "Workers"
)

// Config map parameter types.
const (
	typeString = "string"
	typeInt    = "int"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
)

// Default variable values.
const (
	defaultOutputFormat   = codecutil.VobSub
	defaultVerbosity      = logging.Error
	defaultLanguage       = "en"
	defaultFrameRate      = 23.976
	defaultAlphaCrop      = caption.DefaultAlphaCrop
	defaultAlphaThreshold = caption.DefaultAlphaThreshold
	defaultMergeDiff      = 200 * time.Millisecond
	defaultStream         = vobsub.AnyStream
	maxAlpha              = 255
)

// defaultWorkers is the number of captions processed at once when unset.
var defaultWorkers = uint(runtime.NumCPU())

// Variables describes the variables that can be used for conversion control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyAlphaCrop,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.AlphaCrop = parseUint(KeyAlphaCrop, v, c) },
		Validate: func(c *Config) {
			if c.AlphaCrop > maxAlpha {
				c.LogInvalidField(KeyAlphaCrop, defaultAlphaCrop)
				c.AlphaCrop = defaultAlphaCrop
			}
		},
	},
	{
		Name:   KeyAlphaFallback,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.AlphaFallback = parseBool(KeyAlphaFallback, v, c) },
	},
	{
		Name:   KeyAlphaThreshold,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.AlphaThreshold = parseUint(KeyAlphaThreshold, v, c) },
		Validate: func(c *Config) {
			if c.AlphaThreshold == 0 || c.AlphaThreshold > maxAlpha {
				c.LogInvalidField(KeyAlphaThreshold, defaultAlphaThreshold)
				c.AlphaThreshold = defaultAlphaThreshold
			}
		},
	},
	{
		Name:   KeyBT709,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.BT709 = parseBool(KeyBT709, v, c) },
	},
	{
		Name:   KeyCropOffsetY,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.CropOffsetY = parseUint(KeyCropOffsetY, v, c) },
	},
	{
		Name:   KeyForcedOnly,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.ForcedOnly = parseBool(KeyForcedOnly, v, c) },
	},
	{
		Name: KeyFrameRate,
		Type: typeFloat,
		Update: func(c *Config, v string) {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				c.Logger.Warning("invalid FrameRate param", "value", v)
			}
			c.FrameRate = f
		},
		Validate: func(c *Config) {
			if _, err := pgs.FrameRateCode(c.FrameRate); err != nil {
				c.LogInvalidField(KeyFrameRate, defaultFrameRate)
				c.FrameRate = defaultFrameRate
			}
		},
	},
	{
		Name:   KeyInputFormat,
		Type:   "enum:pgs,vobsub,dvdsup,hddvd",
		Update: func(c *Config, v string) { c.InputFormat = strings.ToLower(v) },
		Validate: func(c *Config) {
			if c.InputFormat != "" && !codecutil.IsValid(c.InputFormat) {
				c.LogInvalidField(KeyInputFormat, "sniffed")
				c.InputFormat = ""
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name:   KeyLanguage,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Language = strings.ToLower(v) },
		Validate: func(c *Config) {
			if len(c.Language) != 2 {
				c.LogInvalidField(KeyLanguage, defaultLanguage)
				c.Language = defaultLanguage
			}
		},
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name: KeyMergeDiff,
		Type: typeUint,
		Update: func(c *Config, v string) {
			_v, err := strconv.Atoi(v)
			if err != nil {
				c.Logger.Warning("invalid MergeDiff param", "value", v)
			}
			c.MergeDiff = time.Duration(_v) * time.Millisecond
		},
		Validate: func(c *Config) {
			if c.MergeDiff <= 0 {
				c.LogInvalidField(KeyMergeDiff, defaultMergeDiff)
				c.MergeDiff = defaultMergeDiff
			}
		},
	},
	{
		Name:   KeyOutputFormat,
		Type:   "enum:pgs,vobsub,dvdsup,hddvd",
		Update: func(c *Config, v string) { c.OutputFormat = strings.ToLower(v) },
		Validate: func(c *Config) {
			if !codecutil.IsValid(c.OutputFormat) {
				c.LogInvalidField(KeyOutputFormat, defaultOutputFormat)
				c.OutputFormat = defaultOutputFormat
			}
		},
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
	},
	{
		Name:   KeyOutputStream,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.OutputStream = parseUint(KeyOutputStream, v, c) },
		Validate: func(c *Config) {
			if c.OutputStream > vobsub.MaxStream {
				c.LogInvalidField(KeyOutputStream, 0)
				c.OutputStream = 0
			}
		},
	},
	{
		Name:   KeyStream,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Stream = parseInt(KeyStream, v, c) },
		Validate: func(c *Config) {
			if c.Stream < vobsub.AnyStream || c.Stream > vobsub.MaxStream {
				c.LogInvalidField(KeyStream, defaultStream)
				c.Stream = defaultStream
			}
		},
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeySwapCrCb,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.SwapCrCb = parseBool(KeySwapCrCb, v, c) },
	},
	{
		Name:   KeyWorkers,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Workers = parseUint(KeyWorkers, v, c) },
		Validate: func(c *Config) {
			if c.Workers == 0 {
				c.LogInvalidField(KeyWorkers, defaultWorkers)
				c.Workers = defaultWorkers
			}
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}
