package hash

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of password with a per-call salt.
func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// CheckPassword reports whether password matches the stored hash.
// bcrypt compares the full digest regardless of where a mismatch occurs.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
