package configs

import (
	"io"
	"os"
	"runtime"
	"time"

	"github.com/pelletier/go-toml"
)

// Because we don't need viper's mess for just storing configuration from
// a source.
type config struct {
	Main   configMain   `toml:"main"`
	Engine configEngine `toml:"engine"`
	Images configImages `toml:"images"`
	Server configServer `toml:"server"`
}

type configMain struct {
	LogLevel string `toml:"log_level"`
	DevMode  bool   `toml:"dev_mode"`
}

type configEngine struct {
	Workers     int `toml:"workers"`
	PoolSize    int `toml:"pool_size"`
	JoinTimeout int `toml:"join_timeout"`
}

type configImages struct {
	Codec   string `toml:"codec"`
	Format  string `toml:"format"`
	Quality int    `toml:"quality"`
}

type configServer struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Config holds the configuration data from configuration files
// or flags.
//
// This variable sets some default values that might be overwritten
// by a configuration file.
var Config = config{
	Main: configMain{
		LogLevel: "info",
		DevMode:  false,
	},
	Engine: configEngine{
		Workers:     runtime.NumCPU(),
		PoolSize:    runtime.NumCPU(),
		JoinTimeout: 300,
	},
	Images: configImages{
		Codec:   "native",
		Format:  "",
		Quality: 90,
	},
	Server: configServer{
		Host: "127.0.0.1",
		Port: 5000,
	},
}

// Timeout returns the engine join ceiling as a duration.
func (c configEngine) Timeout() time.Duration {
	if c.JoinTimeout <= 0 {
		return 0
	}
	return time.Duration(c.JoinTimeout) * time.Second
}

// LoadConfiguration loads the configuration file.
func LoadConfiguration(configPath string) error {
	if configPath == "" {
		return nil
	}

	fd, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer fd.Close()

	dec := toml.NewDecoder(fd)
	if err := dec.Decode(&Config); err != nil {
		return err
	}

	return nil
}

// EncodeConfig writes the current configuration, in TOML, to w.
func EncodeConfig(w io.Writer) error {
	enc := toml.NewEncoder(w).
		ArraysWithOneElementPerLine(true).
		Indentation("  ").
		Order(toml.OrderPreserve)

	return enc.Encode(Config)
}

// WriteConfig writes configuration to a file.
func WriteConfig(filename string) error {
	fd, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if err = EncodeConfig(fd); err != nil {
		defer fd.Close()
		return err
	}

	return fd.Close()
}
