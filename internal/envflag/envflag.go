// Package envflag lets command-line flags take their defaults from the
// environment, optionally seeded from a .env file.
package envflag

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Name returns the environment variable consulted for flag name:
// prefix + "_" + NAME with dashes turned into underscores.
func Name(prefix, name string) string {
	return prefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables already set, then applies any matching variables to
// the flags in flags. Call it before flags.Parse so explicit arguments still win.
func Load(flags *flag.FlagSet, prefix, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !isNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var errs []error
	flags.VisitAll(func(f *flag.Flag) {
		v, ok := os.LookupEnv(Name(prefix, f.Name))
		if !ok {
			return
		}
		if err := flags.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", Name(prefix, f.Name), v, err))
		}
	})
	return errors.Join(errs...)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
