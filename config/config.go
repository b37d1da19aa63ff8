package config

import (
	"fmt"

	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Constants

// Supported database drivers for passdb and userdb.
const (
	DriverPasswdFile = "passwd-file"
	DriverPostgres   = "postgres"
)

// Structs

// Config holds all information parsed from
// supplied config file.
type Config struct {
	IMAP        IMAP
	Distributor Distributor
	Workers     map[string]Worker
	PassDB      DB
	UserDB      DB
}

// IMAP is the IMAP server related part
// of the TOML config file.
type IMAP struct {
	Greeting           string
	HierarchySeparator string
}

// Distributor describes the front-end that parses
// IMAP command lines, authenticates users and
// assigns them to a worker.
type Distributor struct {
	Name           string
	PrometheusAddr string
}

// Worker contains the user sharding information
// for an individual IMAP worker node.
type Worker struct {
	Name        string
	UserStart   int
	UserEnd     int
	MaildirRoot string
}

// DB configures one of the two user databases. For
// the passwd-file driver, Args is the file path. If
// passdb and userdb name the same file, it is read
// only once and shared.
type DB struct {
	Driver   string
	Args     string
	Postgres *Postgres
}

// Postgres defines parameters for connecting to
// a PostgreSQL database holding the users table.
type Postgres struct {
	IP       string
	Port     uint16
	Database string
	User     string
	Password string
	UseTLS   bool
}

// Functions

// LoadConfig takes in the path to the main config
// file of pluto in TOML syntax and places the values
// from the file in the corresponding struct.
func LoadConfig(configFile string) (*Config, error) {

	conf := new(Config)

	// Parse values from TOML file into struct.
	_, err := toml.DecodeFile(configFile, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read in TOML config file at '%s' with: %v", configFile, err)
	}

	if conf.IMAP.Greeting == "" {
		conf.IMAP.Greeting = "Pluto ready."
	}

	if conf.IMAP.HierarchySeparator == "" {
		conf.IMAP.HierarchySeparator = "."
	}

	// Relative paths in the config are
	// relative to the config file itself.
	confDir, err := filepath.Abs(filepath.Dir(configFile))
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of config directory: %v", err)
	}

	for _, db := range []*DB{&conf.PassDB, &conf.UserDB} {

		switch db.Driver {

		case DriverPasswdFile:
			if db.Args == "" {
				return nil, fmt.Errorf("driver %s needs the file path as args", DriverPasswdFile)
			}

			if !filepath.IsAbs(db.Args) {
				db.Args = filepath.Join(confDir, db.Args)
			}

		case DriverPostgres:
			if db.Postgres == nil {
				return nil, fmt.Errorf("driver %s needs a [*.Postgres] section", DriverPostgres)
			}

		default:
			return nil, fmt.Errorf("unknown database driver '%s'", db.Driver)
		}
	}

	workers := make(map[string]Worker, len(conf.Workers))

	for name, worker := range conf.Workers {

		if worker.Name == "" {
			worker.Name = name
		}

		if worker.UserStart > worker.UserEnd {
			return nil, fmt.Errorf("worker %s has user range start %d after end %d", worker.Name, worker.UserStart, worker.UserEnd)
		}

		// Workers[worker].MaildirRoot
		if worker.MaildirRoot != "" && !filepath.IsAbs(worker.MaildirRoot) {
			worker.MaildirRoot = filepath.Join(confDir, worker.MaildirRoot)
		}

		// Assign worker config back under its name.
		workers[worker.Name] = worker
	}

	conf.Workers = workers

	// Every user ID has to map to exactly one worker.
	names := conf.workerNames()
	for i, name := range names {

		for _, other := range names[i+1:] {

			w, o := workers[name], workers[other]
			if w.UserStart <= o.UserEnd && o.UserStart <= w.UserEnd {
				return nil, fmt.Errorf("workers %s and %s have overlapping user ranges", name, other)
			}
		}
	}

	return conf, nil
}

// workerNames returns the names of all workers sorted.
func (conf *Config) workerNames() []string {

	names := make([]string, 0, len(conf.Workers))
	for name := range conf.Workers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// WorkerForUser returns the name of the worker
// responsible for the range containing uid.
func (conf *Config) WorkerForUser(uid int) (string, error) {

	for _, name := range conf.workerNames() {

		worker := conf.Workers[name]

		// Range over all available workers and see which worker
		// is responsible for the range of user IDs that contains
		// the supplied user ID.
		if uid >= worker.UserStart && uid <= worker.UserEnd {
			return name, nil
		}
	}

	return "", fmt.Errorf("no worker responsible for user ID %d", uid)
}
