package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

// ReportConfig configures the report command.
type ReportConfig struct {
	Chain
	API
	Pool  common.Address
	Nitro common.Address
	User  common.Address
	Block uint64
	Out   string
	PGDSN string
}

// LoadReport merges config file, environment variables, and flags into ReportConfig.
func LoadReport(cfgFile string, flags *pflag.FlagSet) (ReportConfig, error) {
	v, err := loadViper(cfgFile, flags, merge(chainDefaults(), apiDefaults()))
	if err != nil {
		return ReportConfig{}, err
	}

	cfg := ReportConfig{
		Chain: readChain(v),
		API:   readAPI(v),
		Block: v.GetUint64("block"),
		Out:   v.GetString("out"),
		PGDSN: v.GetString("pg-dsn"),
	}
	if cfg.Pool, err = ParseAddress("pool", v.GetString("pool")); err != nil {
		return ReportConfig{}, err
	}
	if cfg.Nitro, err = ParseAddress("nitro", v.GetString("nitro")); err != nil {
		return ReportConfig{}, err
	}
	if cfg.User, err = ParseAddress("user", v.GetString("user")); err != nil {
		return ReportConfig{}, err
	}
	return cfg, nil
}

// PositionsConfig configures the positions command.
type PositionsConfig struct {
	Chain
	Pool  common.Address
	User  common.Address
	Block uint64
}

// LoadPositions merges config file, environment variables, and flags into PositionsConfig.
func LoadPositions(cfgFile string, flags *pflag.FlagSet) (PositionsConfig, error) {
	v, err := loadViper(cfgFile, flags, chainDefaults())
	if err != nil {
		return PositionsConfig{}, err
	}

	cfg := PositionsConfig{
		Chain: readChain(v),
		Block: v.GetUint64("block"),
	}
	if cfg.Pool, err = ParseAddress("pool", v.GetString("pool")); err != nil {
		return PositionsConfig{}, err
	}
	if cfg.User, err = ParseAddress("user", v.GetString("user")); err != nil {
		return PositionsConfig{}, err
	}
	return cfg, nil
}

// ServeConfig configures the serve command. Pool and Nitro are optional
// defaults for requests that omit them.
type ServeConfig struct {
	Chain
	API
	Listen string
	Pool   common.Address
	Nitro  common.Address
	Out    string
	PGDSN  string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	defaults := merge(chainDefaults(), apiDefaults(), map[string]interface{}{
		"listen": ":8080",
	})
	v, err := loadViper(cfgFile, flags, defaults)
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Chain:  readChain(v),
		API:    readAPI(v),
		Listen: v.GetString("listen"),
		Out:    v.GetString("out"),
		PGDSN:  v.GetString("pg-dsn"),
	}
	if raw := v.GetString("pool"); raw != "" {
		if cfg.Pool, err = ParseAddress("pool", raw); err != nil {
			return ServeConfig{}, err
		}
	}
	if raw := v.GetString("nitro"); raw != "" {
		if cfg.Nitro, err = ParseAddress("nitro", raw); err != nil {
			return ServeConfig{}, err
		}
	}
	return cfg, nil
}

// HistoryConfig configures the history command.
type HistoryConfig struct {
	// Exactly one of PGDSN and Out selects where reports are read from.
	PGDSN    string
	Out      string
	User     common.Address
	Limit    int
	LogLevel string
}

// LoadHistory merges config file, environment variables, and flags into HistoryConfig.
func LoadHistory(cfgFile string, flags *pflag.FlagSet) (HistoryConfig, error) {
	v, err := loadViper(cfgFile, flags, map[string]interface{}{
		"limit":     20,
		"log-level": "info",
	})
	if err != nil {
		return HistoryConfig{}, err
	}

	cfg := HistoryConfig{
		PGDSN:    v.GetString("pg-dsn"),
		Out:      v.GetString("out"),
		Limit:    v.GetInt("limit"),
		LogLevel: v.GetString("log-level"),
	}
	switch {
	case cfg.PGDSN == "" && cfg.Out == "":
		return HistoryConfig{}, fmt.Errorf("one of pg-dsn or out is required")
	case cfg.PGDSN != "" && cfg.Out != "":
		return HistoryConfig{}, fmt.Errorf("pg-dsn and out are mutually exclusive")
	}
	if cfg.User, err = ParseAddress("user", v.GetString("user")); err != nil {
		return HistoryConfig{}, err
	}
	return cfg, nil
}
