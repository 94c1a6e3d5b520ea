package password

import "golang.org/x/crypto/bcrypt"

// Hash produces a salted bcrypt digest of the password. Each call salts
// fresh, so two hashes of the same password differ; use Verify to check.
func Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches the stored digest. A malformed
// digest is treated as a non-match.
func Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
