/*
Package auth defines the password and user databases an IMAP LOGIN is checked
against and that map an authenticated name to the user's numeric identity and
mail location. Implementations include a passwd-file database shared between
the passdb and userdb subsystems and a PostgreSQL backed one.
*/
package auth
