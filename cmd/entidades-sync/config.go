package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/farxc/entidades-sync/internal/db"
	"github.com/farxc/entidades-sync/internal/env"
	"github.com/farxc/entidades-sync/internal/logger"
	"github.com/farxc/entidades-sync/internal/reconcile"
	"github.com/farxc/entidades-sync/internal/reconcile/files"
	"github.com/farxc/entidades-sync/internal/reconcile/load"
)

const (
	defaultDBAddr      = "fundacion.db"
	defaultLogLevel    = "info"
	defaultDelimiter   = ","
	defaultHistorySize = 10
)

type config struct {
	db           dbConfig
	createSchema bool
	logLevel     logger.LogLevel
	processor    reconcile.Options
}

type dbConfig struct {
	driver       string
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

func loadConfig() (config, error) {
	cfg := config{
		db: dbConfig{
			driver:       env.GetString("DB_DRIVER", db.DriverSQLite),
			addr:         env.GetString("DB_ADDR", defaultDBAddr),
			maxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 1),
			maxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 1),
			maxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		createSchema: env.GetBool("DB_CREATE_SCHEMA", true),
		logLevel:     logger.ParseLevel(env.GetString("LOG_LEVEL", defaultLogLevel)),
		processor:    reconcile.DefaultOptions(),
	}

	cfg.processor.Read.Encoding = env.GetString("CSV_ENCODING", files.EncodingAuto)
	cfg.processor.Read.Sheet = env.GetString("XLSX_SHEET", "")
	cfg.processor.RecordHistory = env.GetBool("RECORD_HISTORY", true)

	delimiter, err := parseDelimiter(env.GetString("CSV_DELIMITER", defaultDelimiter))
	if err != nil {
		return config{}, err
	}
	cfg.processor.Read.Delimiter = delimiter

	policy, err := load.ParseDuplicatePolicy(env.GetString("DUPLICATE_POLICY", string(load.DuplicateReject)))
	if err != nil {
		return config{}, err
	}
	cfg.processor.DuplicatePolicy = policy

	return cfg, nil
}

// parseDelimiter accepts a single character, or "tab" / `\t` for tabs.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("csv delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
