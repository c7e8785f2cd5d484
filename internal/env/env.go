package env

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var v = newViper()

func newViper() *viper.Viper {
	vp := viper.New()
	vp.AutomaticEnv()
	return vp
}

// Load reads the given dotenv files into the process environment. Missing
// files are skipped, variables already set are never overridden.
func Load(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// BindFlag makes a changed command-line flag take precedence over the
// environment for key.
func BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return nil
	}
	return v.BindPFlag(normalize(key), flag)
}

// Reset drops flag bindings. Used between commands and in tests.
func Reset() {
	v = newViper()
}

func normalize(key string) string {
	return strings.ToLower(key)
}

func lookup(key string) (string, bool) {
	k := normalize(key)
	if !v.IsSet(k) {
		return "", false
	}
	return v.GetString(k), true
}

func GetString(key, fallback string) string {
	val, exists := lookup(key)
	if !exists {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, exists := lookup(key)
	if !exists {
		return fallback
	}

	valInt, err := strconv.Atoi(strings.TrimSpace(val))

	if err != nil {
		return fallback
	}
	return valInt
}

func GetBool(key string, fallback bool) bool {
	val, exists := lookup(key)
	if !exists {
		return fallback
	}

	valBool, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return valBool
}
