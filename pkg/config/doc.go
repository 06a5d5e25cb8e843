// Package config loads typed configuration from environment variables.
//
// Each package that needs settings declares a Config struct with env and
// envDefault tags (see pg.Config, media.Config, httpserver.Config); the
// application composes them into one struct and calls Load once at startup.
// LoadEnv optionally seeds the environment from dotenv files first.
package config
