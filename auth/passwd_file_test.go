package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Constants

const testPasswd = `# Test users.
alice:{PLAIN}wonderland:1000:1000:Alice:/home/alice:/bin/false:mail=maildir:~/Maildir

bob:{SHA512-HEX}ba3253876aed6bc22d4a6ff53d8406c6ad864195ed144ab5c87621b6c233b548baeae6956df346ec8c17f5ea10f35ee3cbc514797ed7ddd3145464e2a0bab413:1001:1001
carol:plain
`

// Functions

func writePasswd(t *testing.T, content string) string {

	path := filepath.Join(t.TempDir(), "users.passwd")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

// TestPasswdFileLookup executes a white-box unit test
// on the lookups of a passwd file used as passdb.
func TestPasswdFileLookup(t *testing.T) {

	ctx := context.Background()
	r := NewRegistry(log.NewNopLogger())

	f, err := r.Open(writePasswd(t, testPasswd), false)
	require.NoError(t, err)

	assert.Len(t, f.users, 3)
	assert.Equal(t, "alice", f.users[0].Name)
	assert.Equal(t, "carol", f.users[2].Name)

	ok, err := f.VerifyPlain(ctx, "alice", "wonderland")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.VerifyPlain(ctx, "alice", "Wonderland")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.VerifyPlain(ctx, "bob", "123456")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.VerifyPlain(ctx, "carol", "plain")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.VerifyPlain(ctx, "mallory", "plain")
	assert.NoError(t, err)
	assert.False(t, ok)

	data, found, err := f.LookupUser(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, &UserData{
		UID:         1000,
		GID:         1000,
		VirtualUser: "alice",
		Home:        "/home/alice",
		Mail:        "maildir:~/Maildir",
	}, data)

	// Carol has no uid and gid, which a passdb allows.
	data, found, err = f.LookupUser(ctx, "carol")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, -1, data.UID)
	assert.Equal(t, -1, data.GID)

	_, found, err = f.LookupUser(ctx, "mallory")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestPasswdFileUserDB checks that a userdb requires
// every line to carry uid and gid.
func TestPasswdFileUserDB(t *testing.T) {

	r := NewRegistry(log.NewNopLogger())

	_, err := r.Open(writePasswd(t, testPasswd), true)
	assert.Error(t, err)

	f, err := r.Open(writePasswd(t, "dave:x:7:8\n"), true)
	require.NoError(t, err)
	assert.Equal(t, 7, f.users[0].UID)

	_, err = r.Open(writePasswd(t, "dave:x:-1:8\n"), true)
	assert.Error(t, err)

	_, err = r.Open(writePasswd(t, ":x:1:1\n"), false)
	assert.Error(t, err)

	_, err = r.Open(filepath.Join(t.TempDir(), "missing"), false)
	assert.Error(t, err)
}

// TestRegistrySharing checks that passdb and userdb
// configured with one path share a PasswdFile.
func TestRegistrySharing(t *testing.T) {

	r := NewRegistry(log.NewNopLogger())
	path := writePasswd(t, "erin:secret:5:5\n")

	passdb, err := r.Open(path, false)
	require.NoError(t, err)
	assert.False(t, passdb.userdb)

	userdb, err := r.Open(path, true)
	require.NoError(t, err)

	assert.Same(t, passdb, userdb)
	assert.Equal(t, 2, userdb.Refs())
	assert.True(t, userdb.userdb)
	assert.Equal(t, int64(0), userdb.stamp)
	assert.Equal(t, path, userdb.Path())

	// Reopening for the userdb keeps the userdb rules
	// for the shared file: uid and gid become required.
	require.NoError(t, os.WriteFile(path, []byte("erin:secret:5:5\nfinn:secret\n"), 0600))

	_, _, err = userdb.LookupUser(context.Background(), "erin")
	assert.Error(t, err)

	_, err = passdb.VerifyPlain(context.Background(), "erin", "secret")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("erin:secret:5:5\n"), 0600))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	ok, err := passdb.VerifyPlain(context.Background(), "erin", "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	r.Unref(passdb)
	assert.Equal(t, 1, userdb.Refs())
	assert.Contains(t, r.files, path)

	r.Unref(userdb)
	assert.NotContains(t, r.files, path)
	assert.Nil(t, userdb.users)

	// A new open after the last unref reads again.
	again, err := r.Open(path, false)
	require.NoError(t, err)
	assert.NotSame(t, passdb, again)
	assert.Len(t, again.users, 1)
}

// TestPasswdFileResync checks that changes to the file
// are picked up on the next lookup.
func TestPasswdFileResync(t *testing.T) {

	ctx := context.Background()
	r := NewRegistry(log.NewNopLogger())
	path := writePasswd(t, "frank:old\n")

	f, err := r.Open(path, false)
	require.NoError(t, err)

	ok, err := f.VerifyPlain(ctx, "frank", "old")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("frank:new\ngrace:pw\n"), 0600))

	// Force a different modification time even on
	// file systems with coarse timestamps.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	ok, err = f.VerifyPlain(ctx, "frank", "new")
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := f.LookupUser(ctx, "grace")
	require.NoError(t, err)
	assert.True(t, found)

	// Removing the file makes lookups fail.
	require.NoError(t, os.Remove(path))

	_, err = f.VerifyPlain(ctx, "frank", "new")
	assert.Error(t, err)
}

func TestParsePasswdLine(t *testing.T) {

	u, err := parsePasswdLine("henry:pw:1:2:Henry H.:/home/h:/bin/sh:henry@example.org", false)
	require.NoError(t, err)
	assert.Equal(t, passwdUser{
		Name:     "henry",
		Password: "pw",
		UID:      1,
		GID:      2,
		Gecos:    "Henry H.",
		Home:     "/home/h",
		Shell:    "/bin/sh",
		Mail:     "henry@example.org",
	}, u)

	// The last field may contain colons.
	u, err = parsePasswdLine("ida:pw:1:2::::mail=maildir:/var/mail/ida", false)
	require.NoError(t, err)
	assert.Equal(t, "maildir:/var/mail/ida", u.Mail)

	_, err = parsePasswdLine("ida:pw:one:2", false)
	assert.Error(t, err)

	_, err = parsePasswdLine("ida:pw:1:two", false)
	assert.Error(t, err)

	_, err = parsePasswdLine("ida:pw", true)
	assert.Error(t, err)
}
