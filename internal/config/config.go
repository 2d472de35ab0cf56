// Package config holds the node configuration and its defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/conf/v3"
	"github.com/go-playground/validator/v10"

	"github.com/yourusername/blockwire/internal/wire"
)

// Config is everything the node reads from flags and the environment.
type Config struct {
	conf.Version
	Chain struct {
		Magic      string `conf:"default:f9beb4d9" validate:"len=8,hexadecimal"`
		Version    int32  `conf:"default:1"`
		Difficulty uint32 `conf:"default:486604799" validate:"required"`
	}
	Miner struct {
		Workers int    `conf:"default:1" validate:"min=1,max=1024"`
		Address string `conf:"help:coinbase address; a stored or new wallet is used when empty"`
		Reward  uint64 `conf:"default:5000000000"`
		Blocks  int    `conf:"default:1" validate:"min=0"`
	}
	Wire struct {
		MaxPayload uint32 `conf:"default:33554432" validate:"min=81"`
	}
	DB struct {
		BlocksPath  string `conf:"default:zblock/blocks" validate:"required"`
		WalletsPath string `conf:"default:zblock/wallets" validate:"required"`
	}
	RPC struct {
		Enabled bool   `conf:"default:false"`
		Host    string `conf:"default:0.0.0.0:9090" validate:"required,hostname_port"`
	}
	P2P struct {
		Enabled bool     `conf:"default:false"`
		Listen  string   `conf:"default:/ip4/0.0.0.0/tcp/9000"`
		Peers   []string `conf:"help:multiaddrs of peers to relay blocks to"`
	}
}

// Parse fills a Config from defaults, the environment under prefix and the
// command line. The returned help text is non-empty when --help or
// --version was requested.
func Parse(prefix, build string) (Config, string, error) {
	var cfg Config
	cfg.Version = conf.Version{
		Build: build,
		Desc:  "blockwire node",
	}

	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return cfg, help, nil
		}
		return cfg, "", fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}

	return cfg, "", nil
}

// Validate checks the field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// WireMagic returns the configured frame marker.
func (c *Config) WireMagic() (wire.Magic, error) {
	return wire.ParseMagic(c.Chain.Magic)
}

// String renders the configuration for startup logs.
func (c *Config) String() (string, error) {
	return conf.String(c)
}
