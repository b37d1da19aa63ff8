package auth

import (
	"context"
	"fmt"

	"crypto/tls"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Constants

const (
	queryPassword = "SELECT password FROM users WHERE username = $1"
	queryUser     = "SELECT uid, gid, home, mail FROM users WHERE username = $1"
)

// Structs

// PostgresDB carries all relevant information needed
// to use a users table in a PostgreSQL database as
// passdb and userdb.
type PostgresDB struct {
	conn   querier
	pgConn *pgx.Conn
}

// Interfaces

// querier is the part of *pgx.Conn PostgresDB needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Functions

// NewPostgresDB expects to be supplied with PostgreSQL
// database connection information from the config file.
// It then tries to connect to the database and returns
// an initialized struct above.
func NewPostgresDB(ctx context.Context, ip string, port uint16, db string, user string, password string, useTLS bool) (*PostgresDB, error) {

	connConfig, err := pgx.ParseConfig("")
	if err != nil {
		return nil, errors.Wrap(err, "[auth.NewPostgresDB] could not create connection config")
	}

	connConfig.Host = ip
	connConfig.Port = port
	connConfig.Database = db
	connConfig.User = user
	connConfig.Password = password
	connConfig.Fallbacks = nil

	// A nil TLS config disables TLS.
	connConfig.TLSConfig = nil
	if useTLS {
		connConfig.TLSConfig = &tls.Config{
			ServerName: ip,
			MinVersion: tls.VersionTLS12,
		}
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, errors.Wrap(err, "[auth.NewPostgresDB] could not connect to specified PostgreSQL database")
	}

	return &PostgresDB{
		conn:   conn,
		pgConn: conn,
	}, nil
}

// Close terminates the database connection.
func (p *PostgresDB) Close(ctx context.Context) error {

	if p.pgConn == nil {
		return nil
	}

	return p.pgConn.Close(ctx)
}

// VerifyPlain implements PassDB by comparing against
// the stored, scheme-prefixed password of the user.
func (p *PostgresDB) VerifyPlain(ctx context.Context, name string, password string) (bool, error) {

	var stored string

	err := p.conn.QueryRow(ctx, queryPassword, name).Scan(&stored)
	if err != nil {

		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("error while trying to locate user: %v", err)
	}

	return verifyPassword(stored, password), nil
}

// LookupUser implements UserDB.
func (p *PostgresDB) LookupUser(ctx context.Context, name string) (*UserData, bool, error) {

	data := &UserData{
		VirtualUser: name,
	}

	err := p.conn.QueryRow(ctx, queryUser, name).Scan(&data.UID, &data.GID, &data.Home, &data.Mail)
	if err != nil {

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("error while trying to look up user: %v", err)
	}

	return data, true, nil
}
