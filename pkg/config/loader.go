package config

import (
	"errors"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by configs that check invariants env tags cannot express.
type Validator interface {
	Validate() error
}

// LoadEnv reads dotenv files into the process environment. Variables already
// set are never overridden. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}
	return nil
}

// Load parses environment variables into a new T using its env tags and runs
// Validate when T implements Validator.
//
//	type Config struct {
//		PG    pg.Config
//		Media media.Config
//		Env   string `env:"APP_ENV" envDefault:"development"`
//	}
//
//	cfg, err := config.Load[Config]()
func Load[T any]() (T, error) {
	var v T
	if err := env.Parse(&v); err != nil {
		return v, errors.Join(ErrParsingConfig, err)
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, errors.Join(ErrInvalidConfig, err)
		}
	}
	return v, nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any]() T {
	v, err := Load[T]()
	if err != nil {
		panic(err)
	}
	return v
}
