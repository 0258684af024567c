package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the account document stored in the users collection.
// Password and RefreshToken never appear in JSON output.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string        `bson:"username" json:"username"`
	Email        string        `bson:"email" json:"email"`
	FullName     string        `bson:"fullName" json:"fullName"`
	Password     string        `bson:"password" json:"-"`
	Avatar       string        `bson:"avatar" json:"avatar"`
	CoverImage   string        `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	RefreshToken string        `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}
