package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Structs

// Env holds information specific to the
// system where pluto is deployed. This
// enables host adaptions without needing
// to maintain two different config files.
// Use the .env file to populate secrets
// within the system.
type Env struct {
	DBPassword string
}

// Functions

// LoadEnv reads in all values defined in the
// supplied .env file. Values already present in
// the process environment take precedence.
func LoadEnv(envFile string) (*Env, error) {

	// Load environment file.
	err := godotenv.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("[config.LoadEnv] Failed to read in .env file with: %v", err)
	}

	env := new(Env)

	// Fill variables from .env into struct.
	env.DBPassword = os.Getenv("PLUTO_DB_PASSWORD")

	return env, nil
}

// Apply fills secrets from env into conf where
// the config file left them empty.
func (env *Env) Apply(conf *Config) {

	for _, db := range []*DB{&conf.PassDB, &conf.UserDB} {

		if db.Postgres != nil && db.Postgres.Password == "" {
			db.Postgres.Password = env.DBPassword
		}
	}
}
