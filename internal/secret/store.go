// Package secret stores the remote API token at rest.
package secret

// Store persists the remote API token on disk.
type Store interface {
	// Seal writes the token.
	Seal(token, passphrase string) error

	// Open reads the token back. Implementations that encrypt at rest
	// need the same passphrase used to seal.
	Open(passphrase string) (string, error)

	// IsConfigured reports whether a token has been stored.
	IsConfigured() bool
}
