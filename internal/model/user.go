package model

type User struct {
	BaseModel        // 包括 ID, CreatedAt, UpdatedAt, DeleteAt
	Name      string `gorm:"not null"`
	Email     string `gorm:"unique;not null"`
	Password  string `gorm:"not null"`
	Image     string // 头像路径

	// 用户发布过的视频引用，按追加顺序
	VideoRefs []UserVideo `gorm:"foreignKey:UserID"`
}

// UserVideo 用户的视频引用列表，一行一个引用
// 自增ID就是追加顺序；video_id唯一，一个视频只属于一个作者
type UserVideo struct {
	ID        uint64 `gorm:"primarykey"`
	UserID    uint64 `gorm:"not null;index"`
	VideoID   uint64 `gorm:"not null;uniqueIndex"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}

func (UserVideo) TableName() string {
	return "user_videos"
}
