package config_test

import (
	"os"
	"testing"

	"github.com/go-pluto/imaparg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Functions

// TestLoadEnv executes a black-box test on the
// implemented functionalities to load a .env file.
func TestLoadEnv(t *testing.T) {

	os.Unsetenv("PLUTO_DB_PASSWORD")
	defer os.Unsetenv("PLUTO_DB_PASSWORD")

	_, err := config.LoadEnv("testdata/missing.env")
	assert.Error(t, err)

	env, err := config.LoadEnv("testdata/test.env")
	require.NoError(t, err)

	// Check for test success.
	if env.DBPassword != "works" {
		t.Fatalf("[config.TestLoadEnv] Expected '%s' but received '%s'\n", "works", env.DBPassword)
	}

	conf, err := config.LoadConfig("testdata/postgres-config.toml")
	require.NoError(t, err)

	env.Apply(conf)
	assert.Equal(t, "works", conf.PassDB.Postgres.Password)
	assert.Nil(t, conf.UserDB.Postgres)
}
