package auth

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Structs

// PasswdFile is a user database read from a text file
// in passwd format, one user per line:
//
//	user:password:uid:gid:gecos:home:shell:mail
//
// Trailing fields may be left out. The file is re-read
// whenever its modification time differs from the stamp
// of the last read. One PasswdFile may serve as passdb
// and userdb at once, see Registry.
type PasswdFile struct {
	lock     *sync.RWMutex
	logger   log.Logger
	path     string
	userdb   bool
	stamp    int64
	refcount int
	users    []passwdUser
}

// passwdUser holds the fields of one line.
type passwdUser struct {
	Name     string
	Password string
	UID      int
	GID      int
	Gecos    string
	Home     string
	Shell    string
	Mail     string
}

// Registry hands out one PasswdFile per path, so that
// the passdb and userdb configured with the same file
// share the parsed users. Files are reference counted.
type Registry struct {
	lock   sync.Mutex
	logger log.Logger
	files  map[string]*PasswdFile
}

// Functions

// NewRegistry returns an empty registry logging
// reloads of its files to logger.
func NewRegistry(logger log.Logger) *Registry {

	return &Registry{
		logger: logger,
		files:  make(map[string]*PasswdFile),
	}
}

// Open returns the PasswdFile for path. If the file is
// already open, its reference count is incremented and
// its stamp reset, so that the next lookup re-reads it.
// forUserDB requires every entry to carry a valid uid
// and gid from then on.
func (r *Registry) Open(path string, forUserDB bool) (*PasswdFile, error) {

	r.lock.Lock()
	defer r.lock.Unlock()

	if f, found := r.files[path]; found {

		f.lock.Lock()
		f.refcount++
		f.userdb = f.userdb || forUserDB
		f.stamp = 0
		f.lock.Unlock()

		return f, nil
	}

	f := &PasswdFile{
		lock:     new(sync.RWMutex),
		logger:   log.With(r.logger, "passwd_file", path),
		path:     path,
		userdb:   forUserDB,
		refcount: 1,
	}

	if err := f.Sync(); err != nil {
		return nil, err
	}

	r.files[path] = f

	return f, nil
}

// Unref drops one reference to f. When the last one
// is gone, the file is removed from the registry and
// its users are released.
func (r *Registry) Unref(f *PasswdFile) {

	r.lock.Lock()
	defer r.lock.Unlock()

	f.lock.Lock()
	defer f.lock.Unlock()

	f.refcount--
	if f.refcount > 0 {
		return
	}

	delete(r.files, f.path)
	f.users = nil
}

// Refs returns the current reference count of f.
func (f *PasswdFile) Refs() int {

	f.lock.RLock()
	defer f.lock.RUnlock()

	return f.refcount
}

// Path returns the file name f was opened with.
func (f *PasswdFile) Path() string {
	return f.path
}

// Sync re-reads the file if it changed since the last
// read, or if the stamp was reset.
func (f *PasswdFile) Sync() error {

	info, err := os.Stat(f.path)
	if err != nil {
		return errors.Wrapf(err, "[auth.PasswdFile] could not stat passwd file")
	}

	stamp := info.ModTime().UnixNano()

	f.lock.RLock()
	upToDate := f.stamp != 0 && f.stamp == stamp
	f.lock.RUnlock()

	if upToDate {
		return nil
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	users, err := parsePasswdFile(f.path, f.userdb)
	if err != nil {
		return err
	}

	f.users = users
	f.stamp = stamp

	level.Debug(f.logger).Log(
		"msg", "read passwd file",
		"users", len(users),
	)

	return nil
}

// parsePasswdFile reads all user lines of the file at
// path and returns them sorted by name.
func parsePasswdFile(path string, userdb bool) ([]passwdUser, error) {

	handle, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[auth.PasswdFile] could not open passwd file")
	}
	defer handle.Close()

	users := make([]passwdUser, 0, 50)
	scanner := bufio.NewScanner(handle)

	lineNum := 0
	for scanner.Scan() {

		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		u, err := parsePasswdLine(line, userdb)
		if err != nil {
			return nil, fmt.Errorf("[auth.PasswdFile] %s line %d: %v", path, lineNum, err)
		}

		users = append(users, u)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "[auth.PasswdFile] experienced error while scanning passwd file")
	}

	// Sort users list to search it efficiently later on.
	sort.Slice(users, func(i, j int) bool {
		return users[i].Name < users[j].Name
	})

	return users, nil
}

func parsePasswdLine(line string, userdb bool) (passwdUser, error) {

	fields := strings.SplitN(line, ":", 8)

	// Pad missing trailing fields.
	for len(fields) < 8 {
		fields = append(fields, "")
	}

	u := passwdUser{
		Name:     fields[0],
		Password: fields[1],
		UID:      -1,
		GID:      -1,
		Gecos:    fields[4],
		Home:     fields[5],
		Shell:    fields[6],
		Mail:     strings.TrimPrefix(fields[7], "mail="),
	}

	if u.Name == "" {
		return u, fmt.Errorf("missing user name")
	}

	if fields[2] != "" || userdb {

		uid, err := strconv.Atoi(fields[2])
		if err != nil || uid < 0 {
			return u, fmt.Errorf("invalid uid '%s' for user %s", fields[2], u.Name)
		}
		u.UID = uid
	}

	if fields[3] != "" || userdb {

		gid, err := strconv.Atoi(fields[3])
		if err != nil || gid < 0 {
			return u, fmt.Errorf("invalid gid '%s' for user %s", fields[3], u.Name)
		}
		u.GID = gid
	}

	return u, nil
}

// find searches the sorted user list for name.
func (f *PasswdFile) find(name string) (passwdUser, bool) {

	f.lock.RLock()
	defer f.lock.RUnlock()

	i := sort.Search(len(f.users), func(i int) bool {
		return f.users[i].Name >= name
	})

	if i < len(f.users) && f.users[i].Name == name {
		return f.users[i], true
	}

	return passwdUser{}, false
}

// LookupUser implements UserDB.
func (f *PasswdFile) LookupUser(ctx context.Context, name string) (*UserData, bool, error) {

	if err := f.Sync(); err != nil {
		return nil, false, err
	}

	u, found := f.find(name)
	if !found {
		return nil, false, nil
	}

	return &UserData{
		UID:         u.UID,
		GID:         u.GID,
		VirtualUser: name,
		Home:        u.Home,
		Mail:        u.Mail,
	}, true, nil
}

// VerifyPlain implements PassDB.
func (f *PasswdFile) VerifyPlain(ctx context.Context, name string, password string) (bool, error) {

	if err := f.Sync(); err != nil {
		return false, err
	}

	u, found := f.find(name)
	if !found {
		return false, nil
	}

	return verifyPassword(u.Password, password), nil
}
