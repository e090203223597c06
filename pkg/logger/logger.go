package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是一个全局的、配置好的 logrus 实例
// 默认输出到控制台，这样测试和工具在 InitLogger 之前也能安全使用
var Log = newDefault()

// Options 日志文件和级别配置
type Options struct {
	File       string // 为空则只输出到控制台
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// InitLogger 初始化全局的Logger实例
func InitLogger(opts Options) {
	l := newDefault()

	// 日志同时输出到控制台和滚动文件，lumberjack负责按大小切割
	writers := []io.Writer{os.Stdout}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		})
	}
	l.SetOutput(io.MultiWriter(writers...))

	// 只有大于等于这个级别的日志才会输出。开发时可以是Debug，生产环境可以是Info
	if lvl, err := logrus.ParseLevel(opts.Level); err == nil {
		l.SetLevel(lvl)
	}

	Log = l
}
