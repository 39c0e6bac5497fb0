package pkg

import "golang.org/x/crypto/bcrypt"

const DefaultPasswordHashCost = 14

// HashPasswordWithCost falls back to DefaultPasswordHashCost when cost is outside bcrypt bounds.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordHashCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return BytesToString(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
