package service

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

// PasswordHasher is the one-way credential contract: Hash salts and hashes
// a plaintext password, Compare checks a plaintext against a stored hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) error
}

type BcryptHasher struct{}

func (BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (BcryptHasher) Compare(plaintext, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
}

// IsPasswordMismatch distinguishes a wrong password from an infrastructure
// failure inside Compare.
func IsPasswordMismatch(err error) bool {
	return err == bcrypt.ErrMismatchedHashAndPassword
}
