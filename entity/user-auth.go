package entity

// UserAuth is the caller behind a bearer token.
type UserAuth struct {
	Name  string `json:"name" bson:"name"`
	Token string `json:"token,omitempty" bson:"token"`
}
