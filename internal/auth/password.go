package auth

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength is enforced on registration and password changes.
const MinPasswordLength = 6

const bcryptCost = 10

// HashPassword returns a salted bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword compares a stored hash against a candidate password.
// The comparison is constant-time inside bcrypt.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
