package model

import "time"

// Commentary 评论，只追加，按 created_time 升序
type Commentary struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"type:varchar(36);index:idx_commentary_post_created;not null" json:"post"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"user"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_commentary_post_created" json:"created_time"`

	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Commentary) TableName() string { return "commentaries" }
