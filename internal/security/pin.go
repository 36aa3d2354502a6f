package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Enrollment and verification must agree on every one of these parameters.
// Changing any of them requires a new PINAlgorithm and re-enrollment.
const (
	PINAlgorithm  = "pbkdf2-sha256/120000/32/v1"
	PINIterations = 120_000
	PINHashSize   = 32
	PINSaltSize   = 16
)

// DerivePINHash derives the stored credential for pin under salt.
func DerivePINHash(pin string, salt []byte) []byte {
	return pbkdf2.Key([]byte(pin), salt, PINIterations, PINHashSize, sha256.New)
}

// VerifyPIN reports whether pin derives to expected under salt. The comparison
// runs in time independent of where the first mismatching byte is.
func VerifyPIN(pin string, salt, expected []byte) bool {
	return pinHashEqual(DerivePINHash(pin, salt), expected)
}

// pinHashEqual compares in time that depends only on the lengths of a and b.
func pinHashEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

func NewPINSalt() ([]byte, error) {
	salt := make([]byte, PINSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate pin salt: %w", err)
	}
	return salt, nil
}

// HashPIN enrolls pin with a freshly generated salt.
func HashPIN(pin string) (hash, salt []byte, err error) {
	salt, err = NewPINSalt()
	if err != nil {
		return nil, nil, err
	}
	return DerivePINHash(pin, salt), salt, nil
}
