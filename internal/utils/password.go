package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt digest of the plain password.  Cost
// comes from configuration so tests can use the cheapest setting;
// values outside bcrypt's valid range fall back to the default cost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether the plain password matches the stored
// bcrypt digest.  The comparison is constant time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
