package service

import (
	"context"
	"io"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Service 基础服务，包含数据库和配置
type Service struct {
	DB          *gorm.DB
	RDB         *redis.Client
	TablePrefix string

	// Storage 外部对象存储协作方：上传返回稳定 URL，本子系统只存 URL/展示名。
	Storage ObjectStorage

	// Bans 禁言闸：所有写操作（退出/删除房间除外）入口先查。
	Bans *BanService

	// Notify 通用通知流（落库 + HTTP 拉取；客户端轮询，没有推送通道）
	Notify *NotificationService

	// ReadReceipt 已读游标服务（单调推进 + 未读统计）
	ReadReceipt *ReadReceiptService

	// Friends 好友/屏蔽关系（可见性过滤的数据源）
	Friends *FriendService
}

// Table 获取带前缀的表名
func (s *Service) Table(name string) *gorm.DB {
	return s.DB.Table(name)
}

// ObjectStorage 对象存储协作方接口。上传/转码都在外部完成，
// 这里只拿到可直接落库的 URL 与展示文件名。
type ObjectStorage interface {
	Put(ctx context.Context, name string, r io.Reader, size int64) (url string, displayName string, err error)
}
