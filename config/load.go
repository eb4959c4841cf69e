/*
DESCRIPTION
  load.go provides loading of a Config from a TOML file whose keys are the
  variable names of variables.go.

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
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Load reads the TOML file at path and updates c with its values.
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open config file")
	}
	defer f.Close()
	return c.Decode(f)
}

// Decode reads TOML from r and updates c with its values. Keys that are not
// variable names are logged and ignored.
func (c *Config) Decode(r io.Reader) error {
	var m map[string]interface{}
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return errors.Wrap(err, "could not decode config")
	}
	vars := make(map[string]string, len(m))
	for _, k := range md.Keys() {
		v, ok := m[k.String()]
		if !ok {
			continue
		}
		if !isVariable(k.String()) {
			c.Logger.Warning("unknown config key", "key", k.String())
			continue
		}
		vars[k.String()] = fmt.Sprint(v)
	}
	c.Update(vars)
	return nil
}

func isVariable(name string) bool {
	for _, v := range Variables {
		if v.Name == name {
			return true
		}
	}
	return false
}
