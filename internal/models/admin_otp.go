package models

import (
	"time"
)

// AdminOTP is the pending sign-in code for the admin account. One document per
// email; a TTL index on ExpiresAt lets Mongo drop stale codes.
type AdminOTP struct {
	Email     string    `bson:"_id"`
	CodeHash  string    `bson:"codeHash"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}
