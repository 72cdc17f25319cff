package cont

import (
	"context"

	"myobclient/entity"
)

type ctxKey string

const UserDataKey ctxKey = "userData"

func PutUser(c context.Context, user *entity.UserAuth) context.Context {
	return context.WithValue(c, UserDataKey, *user)
}

// GetUser returns an empty user when the request was not authenticated.
func GetUser(c context.Context) *entity.UserAuth {
	if user, ok := c.Value(UserDataKey).(entity.UserAuth); ok {
		return &user
	}
	return &entity.UserAuth{}
}
