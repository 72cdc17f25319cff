package core

import (
	"crypto/subtle"
	"fmt"

	"myobclient/entity"
)

const apiKeyUser = "internal"

// AuthenticateByToken accepts the configured listen api key. Accepted tokens are cached.
func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token == "" {
		return nil, fmt.Errorf("token not provided")
	}

	c.keysMu.RLock()
	userName, ok := c.keys[token]
	c.keysMu.RUnlock()
	if ok {
		return &entity.UserAuth{Name: userName}, nil
	}

	if c.authKey == "" || subtle.ConstantTimeCompare([]byte(c.authKey), []byte(token)) != 1 {
		return nil, fmt.Errorf("invalid token")
	}

	c.keysMu.Lock()
	c.keys[token] = apiKeyUser
	c.keysMu.Unlock()
	return &entity.UserAuth{Name: apiKeyUser}, nil
}
