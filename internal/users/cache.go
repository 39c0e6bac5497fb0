package users

import (
	"encoding/json"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

// Cache keeps recently authenticated users in process, so the auth gate
// does not hit the db on every protected request. A nil Cache is a no-op.
// Writes through Service invalidate the entry; a row removed from the db
// directly keeps passing the gate until its entry expires (ttlSeconds).
type Cache struct {
	cache      *freecache.Cache
	ttlSeconds int
}

func NewCache(sizeMB, ttlSeconds int) *Cache {
	return &Cache{
		cache:      freecache.NewCache(sizeMB * megabyte),
		ttlSeconds: ttlSeconds,
	}
}

func (c *Cache) Get(id uuid.UUID) (*User, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.cache.Get(id[:])
	if err != nil {
		return nil, false
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		log.Errorf("users cache, unmarshal user %s: %s", id, err)
		c.cache.Del(id[:])
		return nil, false
	}

	return &user, true
}

// Set stores the user, password hash is never cached.
func (c *Cache) Set(user *User) {
	if c == nil || user == nil {
		return
	}

	raw, err := json.Marshal(user.Sanitized())
	if err != nil {
		log.Errorf("users cache, marshal user %s: %s", user.ID, err)
		return
	}

	if err := c.cache.Set(user.ID[:], raw, c.ttlSeconds); err != nil {
		log.Warnf("users cache, set user %s: %s", user.ID, err)
	}
}

func (c *Cache) Invalidate(id uuid.UUID) {
	if c == nil {
		return
	}
	c.cache.Del(id[:])
}
