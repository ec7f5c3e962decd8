package campus_chat

import (
	"github.com/campuslink/campus-chat/service"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type ServiceConfig struct {
	Debug bool
}

type Config struct {
	DB          *gorm.DB
	RDB         *redis.Client
	TablePrefix string
	Service     ServiceConfig

	// Storage 附件上传用的对象存储，不配则上传接口返回参数错误
	Storage service.ObjectStorage
}

type Option func(*Config)

func WithDB(db *gorm.DB) Option {
	return func(c *Config) {
		c.DB = db
	}
}

func WithTablePrefix(prefix string) Option {
	return func(c *Config) {
		c.TablePrefix = prefix
	}
}

func WithRDB(RDB *redis.Client) Option {
	return func(c *Config) {
		c.RDB = RDB
	}
}

func WithServiceDebug(debug bool) Option {
	return func(c *Config) {
		c.Service.Debug = debug
	}
}

// WithStorage 注入对象存储实现（上传文件/图片消息用）。
func WithStorage(st service.ObjectStorage) Option {
	return func(c *Config) {
		c.Storage = st
	}
}
