package auth

import (
	"github.com/google/uuid"

	"github.com/2beens/blogsvc/pkg"
)

const avatarBaseURL = "https://api.dicebear.com/6.x/identicon/svg?seed="

// RandomAvatar returns a DiceBear identicon URL with a random seed.
func RandomAvatar() string {
	seed, err := pkg.GenerateRandomString(6)
	if err != nil {
		seed = uuid.NewString()[:8]
	}
	return avatarBaseURL + seed
}
