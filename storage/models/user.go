package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Privacy string

const (
	Public  Privacy = "public"
	Private Privacy = "private"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	Followers  []string           `bson:"followers" json:"followers"`
	Following  []string           `bson:"following" json:"following"`
	Privacy    Privacy            `bson:"privacy" json:"privacy"`
	IsVerified bool               `bson:"is_verified" json:"isVerified"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

// IsFollowing reports whether id is in the user's following set.
func (u *User) IsFollowing(id string) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}
