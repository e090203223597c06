package model

// 用户与视频的关联关系，uniqueIndex利用的是数据库的“自动查重”能力，保证点赞集合没有重复
type Like struct {
	ID        uint64 `gorm:"primarykey"`
	UserID    uint64 `gorm:"uniqueIndex:idx_user_video"` // 设置联合唯一索引
	VideoID   uint64 `gorm:"uniqueIndex:idx_user_video;index"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}

// 想精确控制表名，或表名不符合GORM的复数规则，就必须实现TableName()方法规定表名
func (Like) TableName() string {
	return "likes"
}
