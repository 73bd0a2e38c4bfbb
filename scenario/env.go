package scenario

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// EnvPrefix starts the names of the variables Env reads.
const EnvPrefix = "WBSIM_"

// Env holds defaults taken from the environment and .env files.
type Env struct {
	MonitorPort int     `mapstructure:"WBSIM_MONITOR_PORT"`
	DB          string  `mapstructure:"WBSIM_DB"`
	LogLevel    string  `mapstructure:"WBSIM_LOG_LEVEL"`
	FreqMHz     float64 `mapstructure:"WBSIM_FREQ_MHZ"`
}

// LoadEnv reads the given .env files, skipping the ones that do not exist,
// and overlays the process environment. Empty values count as unset.
func LoadEnv(files ...string) (Env, error) {
	vars := map[string]string{}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}

		fileVars, err := godotenv.Read(f)
		if err != nil {
			return Env{}, errors.Wrapf(err, "reading %s", f)
		}

		for k, v := range fileVars {
			vars[k] = v
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && v != "" && strings.HasPrefix(k, EnvPrefix) {
			vars[k] = v
		}
	}

	return decodeEnv(vars)
}

func decodeEnv(vars map[string]string) (Env, error) {
	env := Env{LogLevel: "info"}

	input := map[string]interface{}{}
	for k, v := range vars {
		if v != "" {
			input[k] = v
		}
	}

	if err := mapstructure.WeakDecode(input, &env); err != nil {
		return Env{}, errors.Wrap(err, "decoding environment")
	}

	return env, nil
}
