package model

import "time"

// Profile 用户资料，与 User 一对一
type Profile struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"user"`
	Username  string    `gorm:"type:varchar(100);index" json:"username"`
	FirstName string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100)" json:"last_name"`
	Bio       string    `gorm:"type:varchar(100)" json:"bio"`
	Location  string    `gorm:"type:varchar(100);index" json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Profile) TableName() string { return "profiles" }
