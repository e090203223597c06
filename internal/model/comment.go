package model

import "time"

// CommentThread 一个视频对应一个评论串，第一次评论时才创建，评论删光了也不会删除
type CommentThread struct {
	BaseModel
	VideoID uint64 `gorm:"not null;uniqueIndex"`
	// 下一条评论的序号，序号决定存储顺序
	NextSeq uint64 `gorm:"not null;default:0"`

	Comments []Comment `gorm:"foreignKey:ThreadID"`
}

func (CommentThread) TableName() string {
	return "comment_threads"
}

// Comment 评论，作者名和头像是评论时的快照，作者之后改资料也不会回写
type Comment struct {
	ID          string `gorm:"primaryKey;size:36"`
	ThreadID    uint64 `gorm:"not null;index:idx_thread_seq,priority:1"`
	VideoID     uint64 `gorm:"not null;index"`
	Seq         uint64 `gorm:"not null;index:idx_thread_seq,priority:2"`
	AuthorID    uint64 `gorm:"not null;index"`
	AuthorName  string
	AuthorImage string
	// TEXT是MySQL中的一种文本类型，专门用于存储非常长的字符串
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time // 评论时间，编辑不会修改
	UpdatedAt time.Time
}

func (Comment) TableName() string {
	return "comments"
}
