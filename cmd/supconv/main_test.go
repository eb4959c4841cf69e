/*
DESCRIPTION
  main_test.go provides testing for the supconv flag handling.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/subtitle/codec/codecutil"
)

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "supconv.toml")
	err := os.WriteFile(path, []byte("AlphaCrop = 30\nLanguage = \"fr\"\n"), 0644)
	if err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
	err = convertCmd.ParseFlags([]string{
		"--" + flagConfig, path,
		"--" + flagLogFile, filepath.Join(dir, "supconv.log"),
		"--" + flagLanguage, "de",
		"--" + flagForcedOnly,
	})
	if err != nil {
		t.Fatalf("could not parse flags: %v", err)
	}
	cfg, err := newConfig(convertCmd)
	if err != nil {
		t.Fatalf("could not build config: %v", err)
	}
	if cfg.AlphaCrop != 30 || cfg.Language != "de" || !cfg.ForcedOnly {
		t.Errorf("wrong precedence: alpha crop %d, language %q, forced only %v", cfg.AlphaCrop, cfg.Language, cfg.ForcedOnly)
	}
	if cfg.Stream != -1 || cfg.MergeDiff != 200*time.Millisecond || cfg.AlphaThreshold != 80 {
		t.Errorf("flag defaults not applied: %+v", cfg)
	}
}

func TestFormatFromExt(t *testing.T) {
	tests := map[string]string{
		"a.SUB":   codecutil.VobSub,
		"a.idx":   codecutil.VobSub,
		"a/b.sup": codecutil.PGS,
		"a.srt":   "",
		"no_ext":  "",
	}
	for in, want := range tests {
		if got := formatFromExt(in); got != want {
			t.Errorf("%s: got %q, want %q", in, got, want)
		}
	}
}

func TestTimecode(t *testing.T) {
	got := timecode(3723004 * 90)
	if got != "01:02:03.004" {
		t.Errorf("got %q", got)
	}
}
