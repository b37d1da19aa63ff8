package auth

import (
	"context"
)

// Structs

// UserData is the result of a successful user lookup.
type UserData struct {
	UID         int
	GID         int
	VirtualUser string
	Home        string
	Mail        string
}

// Interfaces

// PassDB verifies credentials supplied via an IMAP
// LOGIN or AUTHENTICATE PLAIN exchange.
type PassDB interface {

	// VerifyPlain reports whether password belongs to
	// user name. An unknown user is not an error.
	VerifyPlain(ctx context.Context, name string, password string) (bool, error)
}

// UserDB maps an authenticated user name to the
// identity and mailbox location of that user.
type UserDB interface {

	// LookupUser returns the data stored for name. If
	// no such user exists, found is false and err nil.
	LookupUser(ctx context.Context, name string) (data *UserData, found bool, err error)
}

// Database is a backend able to serve as passdb and
// as userdb, like PasswdFile and PostgresDB.
type Database interface {
	PassDB
	UserDB
}
