package chain

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrMissingConfig is returned when a required network setting is empty.
var ErrMissingConfig = errors.New("missing network configuration")

// Config is the network configuration handed to a Deployer.
type Config struct {
	// Network is a display name used in errors and logs.
	Network    string
	URL        string
	PrivateKey string
	// ChainID, when non-zero, must match the node's chain ID.
	ChainID uint64
	// GasLimit, when non-zero, is used instead of estimating gas.
	GasLimit uint64
}

// Validate reports every required setting that is empty.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: network %q: %s must be set", ErrMissingConfig, c.Network, strings.Join(missing, " and "))
	}
	return nil
}

// LogValue keeps the private key out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("network", c.Network),
		slog.String("url", c.URL),
		slog.Uint64("chain_id", c.ChainID),
		slog.Uint64("gas_limit", c.GasLimit),
		slog.Bool("private_key_set", c.PrivateKey != ""),
	)
}
