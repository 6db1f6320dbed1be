/*
MIT License

Copyright (c) 2024 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package config loads the honeypot's runtime configuration with
// spf13/viper (file, env and flag sources) and optionally watches the
// config file with fsnotify for hot reload, mirroring the teacher's
// config/components pattern trimmed to a single flat settings struct.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackfennetworks/honeytrap/duration"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
)

// Config is the honeypot's full runtime configuration, the union of
// §4.G's listed fields (ports, port_count, max_connections,
// connection_timeout_ms, enable_logging, enable_remote_upload) plus the
// rate-limit and log-capacity knobs the rest of the core needs.
type Config struct {
	Ports               []uint16      `mapstructure:"ports"`
	MaxConnections      int           `mapstructure:"max_connections"`
	ConnectionTimeoutMs int           `mapstructure:"connection_timeout_ms"`
	EnableLogging       bool          `mapstructure:"enable_logging"`
	EnableRemoteUpload  bool          `mapstructure:"enable_remote_upload"`
	RateLimitWindowMs   int           `mapstructure:"rate_limit_window_ms"`
	RateLimitMaxPerWin  int           `mapstructure:"rate_limit_max_per_window"`
	LogCapacity         int           `mapstructure:"log_capacity"`
	FlashPath           string        `mapstructure:"flash_path"`
	S3Bucket            string        `mapstructure:"s3_bucket"`
	S3Region            string        `mapstructure:"s3_region"`
}

// PortCount mirrors the external interface's port_count field: len(Ports)
// kept as a derived accessor instead of a stored, independently-settable
// counter that could drift from the slice.
func (c Config) PortCount() int { return len(c.Ports) }

// ConnectionTimeout returns ConnectionTimeoutMs as a time.Duration, routed
// through duration.Duration so the value can also be logged in its
// days-aware form (see ConnectionTimeoutString).
func (c Config) ConnectionTimeout() time.Duration {
	return duration.ParseDuration(time.Duration(c.ConnectionTimeoutMs) * time.Millisecond).Time()
}

// RateLimitWindow returns RateLimitWindowMs as a time.Duration.
func (c Config) RateLimitWindow() time.Duration {
	return duration.ParseDuration(time.Duration(c.RateLimitWindowMs) * time.Millisecond).Time()
}

// ConnectionTimeoutString renders the connection timeout in the package's
// days-aware notation, for startup log lines.
func (c Config) ConnectionTimeoutString() string {
	return duration.ParseDuration(c.ConnectionTimeout()).String()
}

// Table builds the closed port->service classification for c.Ports,
// restricted to ports the default table actually recognizes.
func (c Config) Table() protocol.Table {
	t := make(protocol.Table, len(c.Ports))
	def := protocol.DefaultTable()
	for _, p := range c.Ports {
		if svc := def.Classify(p); svc != protocol.Unknown {
			t[p] = svc
		}
	}
	return t
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ports", portSliceToInts(protocol.DefaultPorts()))
	v.SetDefault("max_connections", 64)
	v.SetDefault("connection_timeout_ms", 30000)
	v.SetDefault("enable_logging", true)
	v.SetDefault("enable_remote_upload", false)
	v.SetDefault("rate_limit_window_ms", 60000)
	v.SetDefault("rate_limit_max_per_window", 10)
	v.SetDefault("log_capacity", 256)
	v.SetDefault("flash_path", "honeytrap.db")
}

func portSliceToInts(ports []uint16) []int {
	out := make([]int, len(ports))
	for i, p := range ports {
		out[i] = int(p)
	}
	return out
}

// Load reads configuration from path (if non-empty), environment
// variables prefixed HONEYTRAP_, and the given Viper instance's already-
// bound pflags, in that ascending precedence.
func Load(path string, v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix("honeytrap")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	intPorts := v.GetIntSlice("ports")
	for _, p := range intPorts {
		cfg.Ports = append(cfg.Ports, uint16(p))
	}
	cfg.MaxConnections = v.GetInt("max_connections")
	cfg.ConnectionTimeoutMs = v.GetInt("connection_timeout_ms")
	cfg.EnableLogging = v.GetBool("enable_logging")
	cfg.EnableRemoteUpload = v.GetBool("enable_remote_upload")
	cfg.RateLimitWindowMs = v.GetInt("rate_limit_window_ms")
	cfg.RateLimitMaxPerWin = v.GetInt("rate_limit_max_per_window")
	cfg.LogCapacity = v.GetInt("log_capacity")
	cfg.FlashPath = v.GetString("flash_path")
	cfg.S3Bucket = v.GetString("s3_bucket")
	cfg.S3Region = v.GetString("s3_region")

	return cfg, nil
}

// BindFlags registers the subset of Config exposed as CLI flags on cmd and
// binds them into v, following the teacher's RegisterFlag/BindPFlag
// pairing.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	cmd.PersistentFlags().String("config", "", "path to a honeytrap config file")
	cmd.PersistentFlags().IntSlice("ports", nil, "override the listened port set")
	cmd.PersistentFlags().Int("max-connections", 0, "override the concurrent connection cap")
	cmd.PersistentFlags().Bool("enable-logging", true, "persist attack records to the log store")

	if err := v.BindPFlag("ports", cmd.PersistentFlags().Lookup("ports")); err != nil {
		return err
	}
	if err := v.BindPFlag("max_connections", cmd.PersistentFlags().Lookup("max-connections")); err != nil {
		return err
	}
	if err := v.BindPFlag("enable_logging", cmd.PersistentFlags().Lookup("enable-logging")); err != nil {
		return err
	}
	return nil
}
