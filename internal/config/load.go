package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/envsetup/internal/errors"
)

// DefaultDotenvFile is read from the working directory when present.
const DefaultDotenvFile = ".env"

// LoadOpts controls Load.
type LoadOpts struct {
	// ConfigFile is an optional YAML file; when set it must exist.
	ConfigFile string
	// DotenvFile is read only if it exists. Empty means DefaultDotenvFile.
	DotenvFile string
	// Lookup reads the process environment. Nil means os.LookupEnv.
	Lookup func(string) (string, bool)
	// Flags are applied last. Only flags marked Changed are used.
	Flags *pflag.FlagSet
}

// Load merges every configuration layer and validates the result.
// All failures are E_CONFIG.
func Load(opts LoadOpts) (Settings, error) {
	s := Defaults()

	if opts.ConfigFile != "" {
		if err := LoadFile(opts.ConfigFile, &s); err != nil {
			return Settings{}, err
		}
	}

	dotenvPath := opts.DotenvFile
	if dotenvPath == "" {
		dotenvPath = DefaultDotenvFile
	}
	dotenv, err := readDotenv(dotenvPath)
	if err != nil {
		return Settings{}, err
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	// Real environment variables win over .env entries.
	merged := func(name string) (string, bool) {
		if v, ok := lookup(name); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[name]
		return v, ok
	}
	if err := applyLookup(&s, merged); err != nil {
		return Settings{}, errors.Wrap(errors.EConfig, err.Error(), err)
	}

	if opts.Flags != nil {
		if err := applyFlags(&s, opts.Flags); err != nil {
			return Settings{}, errors.Wrap(errors.EConfig, err.Error(), err)
		}
	}

	if err := Validate(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadFile decodes a YAML settings file over s. Unknown keys are rejected.
func LoadFile(path string, s *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithDetails(errors.EConfig, "failed to read config file", err,
			map[string]string{"path": path})
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.WrapWithDetails(errors.EConfig, "invalid config file: "+err.Error(), err,
			map[string]string{"path": path})
	}
	return nil
}

func readDotenv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithDetails(errors.EConfig, "failed to stat dotenv file", err,
			map[string]string{"path": path})
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EConfig, "invalid dotenv file: "+err.Error(), err,
			map[string]string{"path": path})
	}
	return values, nil
}
