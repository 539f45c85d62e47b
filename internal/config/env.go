// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Env holds the settings gptsql reads from the environment. The connection
// fields are the fallback used when neither the config record nor flags
// provide a connection.
type Env struct {
	DBType      string `envconfig:"DBTYPE"`
	DBHost      string `envconfig:"DBHOST"`
	DBPort      int    `envconfig:"DBPORT"`
	DBUser      string `envconfig:"DBUSER"`
	DBPassword  string `envconfig:"DBPASSWORD"`
	DBName      string `envconfig:"DBNAME"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	APIKey  string `envconfig:"OPENAI_API_KEY"`
	BaseURL string `envconfig:"OPENAI_BASE_URL"`
	Model   string `envconfig:"GPTSQL_MODEL"`

	// RedisURL enables the shared result cache when set.
	RedisURL string `envconfig:"GPTSQL_REDIS_URL"`
	Verbose  bool   `envconfig:"GPTSQL_VERBOSE"`
}

// LoadEnv reads optional dotenv files (default ".env") into the process
// environment without overriding variables that are already set, then
// decodes Env from it.
func LoadEnv(dotenvFiles ...string) (Env, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return env, err
	}
	return env, nil
}
