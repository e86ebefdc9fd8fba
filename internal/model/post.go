package model

import "time"

const PostTitleMaxLen = 63

// Post 帖子。CreatedAt 默认为写入时刻，同步降级路径可显式指定
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID   string    `gorm:"type:varchar(36);index:idx_post_owner_created;not null" json:"owner"`
	Title     string    `gorm:"type:varchar(63);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_post_owner_created;index:idx_post_created" json:"created_time"`
	UpdatedAt time.Time `json:"-"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Post) TableName() string { return "posts" }
