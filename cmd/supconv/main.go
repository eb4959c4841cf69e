/*
DESCRIPTION
  supconv converts bitmap subtitle streams between Blu-ray PGS, HD-DVD SUP,
  DVD VobSub and DVD SUP, and reports the captions of a stream.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the supconv command.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/config"
	"github.com/ausocean/subtitle/convert"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 50 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
)

// Flag names.
const (
	flagConfig         = "config"
	flagLogFile        = "log-file"
	flagLogLevel       = "log-level"
	flagSuppress       = "suppress"
	flagFormat         = "format"
	flagInputFormat    = "input-format"
	flagStream         = "stream"
	flagOutputStream   = "out-stream"
	flagLanguage       = "lang"
	flagFrameRate      = "fps"
	flagCropOffsetY    = "crop-y"
	flagAlphaCrop      = "alpha-crop"
	flagAlphaThreshold = "alpha-threshold"
	flagBT709          = "bt709"
	flagSwapCrCb       = "swap-crcb"
	flagMergeDiff      = "merge-diff"
	flagAlphaFallback  = "alpha-fallback"
	flagForcedOnly     = "forced-only"
	flagWorkers        = "workers"
)

// flagKeys maps flags to the config variables they set.
var flagKeys = []struct{ flag, key string }{
	{flagLogLevel, config.KeyLogging},
	{flagSuppress, config.KeySuppress},
	{flagFormat, config.KeyOutputFormat},
	{flagInputFormat, config.KeyInputFormat},
	{flagStream, config.KeyStream},
	{flagOutputStream, config.KeyOutputStream},
	{flagLanguage, config.KeyLanguage},
	{flagFrameRate, config.KeyFrameRate},
	{flagCropOffsetY, config.KeyCropOffsetY},
	{flagAlphaCrop, config.KeyAlphaCrop},
	{flagAlphaThreshold, config.KeyAlphaThreshold},
	{flagBT709, config.KeyBT709},
	{flagSwapCrCb, config.KeySwapCrCb},
	{flagMergeDiff, config.KeyMergeDiff},
	{flagAlphaFallback, config.KeyAlphaFallback},
	{flagForcedOnly, config.KeyForcedOnly},
	{flagWorkers, config.KeyWorkers},
}

var rootCmd = &cobra.Command{
	Use:           "supconv",
	Short:         "Convert bitmap subtitle streams.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a subtitle stream to another format",
	Long: "Convert a PGS, HD-DVD SUP, VobSub or DVD SUP stream. The output format\n" +
		"is taken from --format or the output file extension. IDX and IFO\n" +
		"sidecars are read and written next to the streams.",
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var infoCmd = &cobra.Command{
	Use:   "info <input>",
	Short: "List the captions of a subtitle stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var versionCmd = &cobra.Command{
	Use:                   "version",
	Short:                 "Print supconv version",
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	d := caption.DefaultParams()
	pf := rootCmd.PersistentFlags()
	pf.String(flagConfig, "", "TOML file of config variables")
	pf.String(flagLogFile, "supconv.log", "log file, rotated")
	pf.String(flagLogLevel, "Info", "log level: Debug, Info, Warning, Error or Fatal")
	pf.Bool(flagSuppress, false, "suppress repeated log messages")
	pf.String(flagInputFormat, "", "input format: pgs, vobsub, dvdsup or hddvd (sniffed if empty)")
	pf.Int(flagStream, -1, "VobSub sub-picture stream to read, -1 for the first found")
	pf.Float64(flagFrameRate, 23.976, "video frame rate")
	pf.Int(flagCropOffsetY, 0, "lines cropped from the top and bottom of the screen")
	pf.Int(flagAlphaCrop, d.AlphaCrop, "palette alpha below which entries become transparent")
	pf.Bool(flagBT709, false, "use BT.709 colour coefficients")
	pf.Bool(flagSwapCrCb, false, "swap Cr and Cb of decoded palettes")
	pf.Int(flagMergeDiff, 200, "largest gap in ms between merged PGS captions")
	pf.Bool(flagAlphaFallback, false, "reuse the previous alpha for fully transparent captions")
	pf.Bool(flagForcedOnly, false, "only keep forced captions")
	pf.Int(flagWorkers, 0, "captions processed at once, 0 for one per CPU")

	f := convertCmd.Flags()
	f.String(flagFormat, "", "output format: pgs, vobsub, dvdsup or hddvd")
	f.Int(flagOutputStream, 0, "VobSub sub-picture stream written")
	f.String(flagLanguage, "en", "language code written to sidecars")
	f.Int(flagAlphaThreshold, d.AlphaThreshold, "alpha below which pixels are background in 4 colour output")

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	rootCmd.AddCommand(convertCmd, infoCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// newConfig builds the config from flag defaults, the config file and then
// the flags given, in that order of precedence.
func newConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	all := make(map[string]string)
	changed := make(map[string]string)
	for _, fk := range flagKeys {
		f := flags.Lookup(fk.flag)
		if f == nil {
			continue
		}
		all[fk.key] = f.Value.String()
		if f.Changed {
			changed[fk.key] = f.Value.String()
		}
	}

	// Variables are parsed before the logger exists; parse warnings go to
	// stderr.
	cfg := config.New(logging.New(logging.Warning, os.Stderr, false))
	cfg.Update(all)
	if path, _ := flags.GetString(flagConfig); path != "" {
		err := cfg.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	cfg.Update(changed)

	logFile, _ := flags.GetString(flagLogFile)
	fileLog := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	cfg.Logger = logging.New(cfg.LogLevel, io.MultiWriter(os.Stderr, fileLog), cfg.Suppress)
	return cfg, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := newConfig(cmd)
	if err != nil {
		return err
	}
	cfg.InputPath, cfg.OutputPath = args[0], args[1]
	if !cmd.Flags().Changed(flagFormat) && cfg.OutputFormat == "" {
		cfg.OutputFormat = formatFromExt(cfg.OutputPath)
	}
	cfg.Logger.Info("starting supconv", "version", version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	cv, err := convert.New(cfg, newProgress(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	log, err := cv.Run(ctx)
	for _, w := range log {
		cfg.Logger.Debug("conversion warning", "warning", w.String())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %s\n", args[0], args[1], log.String())
	return err
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := newConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	cv, err := convert.New(cfg, nil)
	if err != nil {
		return err
	}
	s, err := cv.Read(ctx, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "format: %s\ncaptions: %d\n", s.Format, len(s.Result.Captions))
	for i, c := range s.Result.Captions {
		forced := ""
		if c.Forced {
			forced = " forced"
		}
		fmt.Fprintf(out, "%4d %s --> %s %dx%d at %d,%d on %dx%d%s\n",
			i, timecode(c.Start), timecode(c.End), c.Width, c.Height, c.X, c.Y, c.ScreenWidth, c.ScreenHeight, forced)
	}
	for _, w := range s.Result.Log {
		fmt.Fprintln(out, "warning:", w.String())
	}
	if s.Result.Err != nil {
		fmt.Fprintln(out, "stopped:", s.Result.Err)
	}
	return nil
}

// formatFromExt returns the output format implied by the file name.
func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sub", ".idx":
		return codecutil.VobSub
	case ".sup":
		return codecutil.PGS
	}
	return ""
}

// timecode formats ticks as hh:mm:ss.mmm.
func timecode(t int64) string {
	ms := t * 1000 / caption.PTSFrequency
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// newProgress returns a progress callback printing whole percentages to w.
func newProgress(w io.Writer) caption.Progress {
	last := -1
	return func(off, total int64) {
		if total <= 0 {
			return
		}
		p := int(off * 100 / total)
		if p == last {
			return
		}
		last = p
		fmt.Fprintf(w, "\r%3d%%", p)
		if p == 100 {
			fmt.Fprintln(w)
		}
	}
}
