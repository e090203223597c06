package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrThreadNotFound  = errors.New("评论串不存在")
	ErrCommentNotFound = errors.New("评论不存在")
)

// IsDuplicateKey 判断是否是唯一索引冲突
// TranslateError开启时各驱动都会返回gorm.ErrDuplicatedKey，没开时兜底识别MySQL的1062
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	// 错误号 1062 就是 "Duplicate entry"
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
