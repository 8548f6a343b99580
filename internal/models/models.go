package models

import "time"

type User struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username        string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email           string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash    string    `gorm:"not null"                 json:"-"`
	PasswordVersion int       `gorm:"not null;default:0"       json:"-"`
	AvatarURL       string    `json:"avatarUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Companion is a travel-companion profile. Every user owns exactly one
// self companion, created on registration or lazily on login for
// accounts that predate companions.
type Companion struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                               json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_companions_self;not null"               json:"userId"`
	Name      string    `gorm:"not null"                                               json:"name"`
	IsSelf    bool      `gorm:"uniqueIndex:idx_companions_self;not null;default:false" json:"isSelf"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
