package model

import "time"

// ReactionKind 点赞 / 点踩
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

func (k ReactionKind) Valid() bool { return k == ReactionLike || k == ReactionDislike }

// Opposite 返回互斥的另一种反应
func (k ReactionKind) Opposite() ReactionKind {
	if k == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// Reaction 同一 (user, post) 至多一行，kind 决定是赞还是踩
type Reaction struct {
	ID     string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string       `gorm:"type:varchar(36);uniqueIndex:ux_reaction_user_post;not null" json:"user"`
	PostID string       `gorm:"type:varchar(36);uniqueIndex:ux_reaction_user_post;index:idx_reaction_post_kind;not null" json:"post"`
	Kind   ReactionKind `gorm:"type:varchar(8);index:idx_reaction_post_kind;not null" json:"kind"`
	// ux_reaction_user_post = (user_id, post_id)
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Reaction) TableName() string { return "reactions" }
