package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"nitroScope/internal/chain"
	"nitroScope/internal/position"
)

const (
	testPool  = "0x824959a55907d5350e73e151Ff48DabC5A37a657"
	testNitro = "0x53F973256F410d1D8b10ce72D03D8dBBD3b1066E"
	testUser  = "0x9492510BbCB93B6992d8b7Bb67888558E12DCac4"
)

func reportFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("report", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("pool", "", "")
	flags.String("nitro", "", "")
	flags.String("user", "", "")
	flags.Uint64("block", 0, "")
	flags.StringSlice("spnft", nil, "")
	flags.String("mismatch-policy", "skip", "")
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"NITRO_RPC", "NITRO_POOL", "NITRO_NITRO", "NITRO_USER", "NITRO_SPNFT", legacyRPCEnv} {
		t.Setenv(key, "")
	}
}

func TestLoadReportFromFlags(t *testing.T) {
	clearEnv(t)
	flags := reportFlags(t, "--pool", testPool, "--nitro", testNitro, "--user", testUser, "--block", "123")

	cfg, err := LoadReport("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pool != common.HexToAddress(testPool) || cfg.Nitro != common.HexToAddress(testNitro) || cfg.User != common.HexToAddress(testUser) {
		t.Fatalf("addresses: %+v", cfg)
	}
	if cfg.Block != 123 {
		t.Fatalf("block: %d", cfg.Block)
	}
	if cfg.RPCURL != chain.DefaultRPCURL {
		t.Fatalf("rpc default: %s", cfg.RPCURL)
	}
	if cfg.MaxRetries != 3 || cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("retry defaults: %d %s", cfg.MaxRetries, cfg.RetryBackoff)
	}
	if cfg.CacheTTL != time.Minute || cfg.BaseURL == "" {
		t.Fatalf("api defaults: %+v", cfg.API)
	}
}

func TestLoadReportEnvAndLegacyRPC(t *testing.T) {
	clearEnv(t)
	t.Setenv(legacyRPCEnv, "http://legacy:8545")
	t.Setenv("NITRO_USER", testUser)
	flags := reportFlags(t, "--pool", testPool, "--nitro", testNitro)

	cfg, err := LoadReport("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://legacy:8545" {
		t.Fatalf("legacy rpc: %s", cfg.RPCURL)
	}
	if cfg.User != common.HexToAddress(testUser) {
		t.Fatalf("user from env: %s", cfg.User.Hex())
	}

	t.Setenv("NITRO_RPC", "http://primary:8545")
	cfg, err = LoadReport("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://primary:8545" {
		t.Fatalf("NITRO_RPC should win: %s", cfg.RPCURL)
	}
}

func TestLoadReportConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nitro.yaml")
	body := "pool: " + testPool + "\nnitro: " + testNitro + "\nuser: " + testUser + "\nspnft:\n  - 0x1111111111111111111111111111111111111111\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadReport(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.SpNFTs) != 1 || cfg.SpNFTs[0] != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("spnft from file: %v", cfg.SpNFTs)
	}
}

func TestLoadReportRequiresAddresses(t *testing.T) {
	clearEnv(t)
	if _, err := LoadReport("", reportFlags(t, "--pool", testPool, "--nitro", testNitro)); err == nil {
		t.Fatalf("expected missing user error")
	}
	if _, err := LoadReport("", reportFlags(t, "--pool", "0x123", "--nitro", testNitro, "--user", testUser)); err == nil {
		t.Fatalf("expected invalid pool error")
	}
}

func TestPositionConfig(t *testing.T) {
	c := Chain{
		AlgebraPositions: position.DefaultAlgebraPositions,
		SpNFTs:           []string{DefaultSpNFT},
		MismatchPolicy:   "reject",
		Concurrency:      4,
		MaxPositions:     50,
	}
	cfg, err := c.PositionConfig()
	if err != nil {
		t.Fatalf("position config: %v", err)
	}
	if cfg.Policy != position.MismatchReject || cfg.Concurrency != 4 || cfg.MaxPositions != 50 {
		t.Fatalf("policy/concurrency/limit: %+v", cfg)
	}
	if cfg.AlgebraPositions != common.HexToAddress(position.DefaultAlgebraPositions) || len(cfg.SpNFTs) != 1 {
		t.Fatalf("addresses: %+v", cfg)
	}

	c.MismatchPolicy = "sometimes"
	if _, err := c.PositionConfig(); err == nil {
		t.Fatalf("expected policy error")
	}
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" " + testPool + " ", ""})
	if err != nil || len(got) != 1 {
		t.Fatalf("parse: %v %v", got, err)
	}
	if _, err := ParseAddresses([]string{"nope"}); err == nil {
		t.Fatalf("expected error")
	}
}

func historyFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("history", pflag.ContinueOnError)
	flags.String("pg-dsn", "", "")
	flags.String("out", "", "")
	flags.String("user", "", "")
	flags.Int("limit", 20, "")
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags
}

func TestLoadHistorySource(t *testing.T) {
	clearEnv(t)
	t.Setenv("NITRO_PG_DSN", "")
	t.Setenv("NITRO_OUT", "")

	cfg, err := LoadHistory("", historyFlags(t, "--out", "reports.jsonl", "--user", testUser, "--limit", "5"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Out != "reports.jsonl" || cfg.PGDSN != "" || cfg.Limit != 5 || cfg.User != common.HexToAddress(testUser) {
		t.Fatalf("history config: %+v", cfg)
	}

	if _, err := LoadHistory("", historyFlags(t, "--user", testUser)); err == nil {
		t.Fatalf("expected missing source error")
	}
	if _, err := LoadHistory("", historyFlags(t, "--user", testUser, "--out", "a.jsonl", "--pg-dsn", "postgres://x")); err == nil {
		t.Fatalf("expected exclusive source error")
	}
}
