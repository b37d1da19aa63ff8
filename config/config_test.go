package config_test

import (
	"testing"

	"path/filepath"

	"github.com/go-pluto/imaparg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Functions

// TestLoadConfig executes a black-box test on the
// implemented functionalities to load a TOML config file.
func TestLoadConfig(t *testing.T) {

	// Try to load a broken config file. This should fail.
	_, err := config.LoadConfig("testdata/broken-config.toml")
	if err == nil {
		t.Fatal("[config.TestLoadConfig] Expected fail while loading broken-config.toml but received 'nil' error.")
	}

	// Now load a valid config.
	conf, err := config.LoadConfig("testdata/config.toml")
	if err != nil {
		t.Fatalf("[config.TestLoadConfig] Expected success while loading config.toml but received: '%s'\n", err.Error())
	}

	absDir, err := filepath.Abs("testdata")
	require.NoError(t, err)

	assert.Equal(t, "Pluto ready.", conf.IMAP.Greeting)
	assert.Equal(t, "/", conf.IMAP.HierarchySeparator)
	assert.Equal(t, filepath.Join(absDir, "users.passwd"), conf.PassDB.Args)
	assert.Equal(t, conf.PassDB.Args, conf.UserDB.Args)

	// Workers are keyed by their name, which
	// defaults to the key of their table.
	require.Len(t, conf.Workers, 2)
	assert.Equal(t, "worker-1", conf.Workers["worker-1"].Name)
	assert.Equal(t, filepath.Join(absDir, "private/maildirs/worker-1"), conf.Workers["worker-1"].MaildirRoot)
	assert.Equal(t, 11, conf.Workers["worker-2"].UserStart)
}

// TestLoadConfigDrivers checks the database driver sections.
func TestLoadConfigDrivers(t *testing.T) {

	conf, err := config.LoadConfig("testdata/postgres-config.toml")
	require.NoError(t, err)

	require.NotNil(t, conf.PassDB.Postgres)
	assert.Equal(t, config.DriverPostgres, conf.PassDB.Driver)
	assert.Equal(t, uint16(5432), conf.PassDB.Postgres.Port)
	assert.Equal(t, "/etc/pluto/users.passwd", conf.UserDB.Args)

	// Defaults apply when the IMAP section is missing.
	assert.Equal(t, "Pluto ready.", conf.IMAP.Greeting)
	assert.Equal(t, ".", conf.IMAP.HierarchySeparator)

	_, err = config.LoadConfig("testdata/unknown-driver.toml")
	assert.Error(t, err)
}

// TestWorkerForUser checks routing of user IDs to workers.
func TestWorkerForUser(t *testing.T) {

	conf, err := config.LoadConfig("testdata/config.toml")
	require.NoError(t, err)

	tests := []struct {
		uid    int
		worker string
		ok     bool
	}{
		{1, "worker-1", true},
		{10, "worker-1", true},
		{11, "worker-2", true},
		{20, "worker-2", true},
		{21, "", false},
		{0, "", false},
	}

	for _, tt := range tests {

		name, err := conf.WorkerForUser(tt.uid)
		if tt.ok {
			assert.NoError(t, err, "uid %d", tt.uid)
		} else {
			assert.Error(t, err, "uid %d", tt.uid)
		}
		assert.Equal(t, tt.worker, name, "uid %d", tt.uid)
	}
}

// TestOverlappingWorkers checks that every user ID
// maps to one worker only.
func TestOverlappingWorkers(t *testing.T) {

	_, err := config.LoadConfig("testdata/overlapping-workers.toml")
	if err == nil {
		t.Fatal("[config.TestOverlappingWorkers] Expected fail while loading overlapping-workers.toml but received 'nil' error.")
	}
	assert.Contains(t, err.Error(), "worker-1 and worker-2")

	// Configs built by hand are not checked, the
	// lookup still prefers the first name in order.
	conf := &config.Config{
		Workers: map[string]config.Worker{
			"worker-b": {Name: "worker-b", UserStart: 1, UserEnd: 20},
			"worker-a": {Name: "worker-a", UserStart: 10, UserEnd: 30},
			"worker-c": {Name: "worker-c", UserStart: 5, UserEnd: 15},
		},
	}

	for i := 0; i < 50; i++ {

		name, err := conf.WorkerForUser(12)
		require.NoError(t, err)
		assert.Equal(t, "worker-a", name)
	}
}
