package auth

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Constants

const defaultScheme = "PLAIN"

// Functions

// splitScheme separates a stored password of the form
// "{SCHEME}data" into scheme and data. Passwords without
// a scheme prefix are plaintext.
func splitScheme(stored string) (string, string) {

	if strings.HasPrefix(stored, "{") {

		if end := strings.IndexByte(stored, '}'); end > 0 {
			return strings.ToUpper(stored[1:end]), stored[end+1:]
		}
	}

	return defaultScheme, stored
}

// HashSHA512 returns password in the "{SHA512}" scheme,
// base64 encoded as the users table stores it.
func HashSHA512(password string) string {

	sum := sha512.Sum512([]byte(password))

	return "{SHA512}" + base64.StdEncoding.EncodeToString(sum[:])
}

// verifyPassword compares a supplied plaintext password
// against a stored one. Unknown schemes never match.
func verifyPassword(stored string, password string) bool {

	scheme, data := splitScheme(stored)

	var want []byte
	var got []byte

	switch scheme {

	case "PLAIN", "CLEARTEXT":
		want = []byte(data)
		got = []byte(password)

	case "SHA512":
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return false
		}
		sum := sha512.Sum512([]byte(password))
		want, got = decoded, sum[:]

	case "SHA512-HEX":
		decoded, err := hex.DecodeString(data)
		if err != nil {
			return false
		}
		sum := sha512.Sum512([]byte(password))
		want, got = decoded, sum[:]

	default:
		return false
	}

	return subtle.ConstantTimeCompare(want, got) == 1
}
