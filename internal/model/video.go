package model

// Video结构：作者、标题、简介、封面和视频文件，以及观看数和点赞集合
type Video struct {
	BaseModel
	AuthorID    uint64 `gorm:"not null;index"` // 作者ID，创建后不可变
	Title       string `gorm:"not null"`       // 视频标题
	Description string `gorm:"type:text;not null"`

	// 媒体文件路径，创建后不会再指向别处
	ImagePath string `gorm:"not null"`
	VideoPath string `gorm:"not null"`

	Views     uint64 `gorm:"default:0"`
	LikeCount uint64 `gorm:"default:0"` // likes表的冗余计数，和点赞行在同一个事务里维护

	// 点赞用户集合，来自likes表，不落在videos表里
	Likes []uint64 `gorm:"-"`

	// 外键AuthorID和User表的ID
	Author User `gorm:"foreignKey:AuthorID;references:ID"`
}
