package service

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuslink/campus-chat/models"
)

// newTestDB 建一个内存 SQLite 并迁移全部表，用于行为级测试。
// MaxOpenConns=1：内存库按连接隔离，必须钉在同一条连接上。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb, err := db.DB()
	if err != nil {
		t.Fatalf("db(): %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Friend{},
		&models.Block{},
		&models.Room{},
		&models.RoomMember{},
		&models.Message{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
		&models.ChatBan{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

// testEnv 一套共享 base 的全量服务，和引擎里的装配顺序一致。
type testEnv struct {
	base *Service

	Rooms  *RoomService
	Msgs   *MessageService
	Polls  *PollService
	Reads  *ReadReceiptService
	Notifs *NotificationService
	Frs    *FriendService
	Bans   *BanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := &Service{DB: newTestDB(t), TablePrefix: "sl_"}
	base.Bans = NewBanService(base)
	base.Friends = NewFriendService(base)
	base.ReadReceipt = NewReadReceiptService(base)
	base.Notify = NewNotificationService(base)

	return &testEnv{
		base:   base,
		Rooms:  NewRoomService(base),
		Msgs:   NewMessageService(base),
		Polls:  NewPollService(base),
		Reads:  base.ReadReceipt,
		Notifs: base.Notify,
		Frs:    base.Friends,
		Bans:   base.Bans,
	}
}

// seedUsers 建 n 个用户，ID 从 1 开始。
func (e *testEnv) seedUsers(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		u := models.User{
			ID:       uint64(i),
			Username: fmt.Sprintf("stu%04d", i),
			Nickname: fmt.Sprintf("同学%d", i),
		}
		if err := e.base.DB.Create(&u).Error; err != nil {
			t.Fatalf("seed user %d: %v", i, err)
		}
	}
}

// countFeedEvents 统计用户通知流里某事件类型的条数
func (e *testEnv) countFeedEvents(t *testing.T, userID uint64, typ string) int {
	t.Helper()
	items, _, err := e.Notifs.List(userID, 0, 50, false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	n := 0
	for _, it := range items {
		if it.Type == typ {
			n++
		}
	}
	return n
}

// banUser 写一条禁言记录。expires 为 nil 且 permanent=false 时写过期禁言（应放行）。
func (e *testEnv) banUser(t *testing.T, userID uint64, permanent bool, expires *time.Time) {
	t.Helper()
	ban := models.ChatBan{UserID: userID, Permanent: permanent, Reason: "违规", ExpiresAt: expires}
	if err := e.base.DB.Create(&ban).Error; err != nil {
		t.Fatalf("seed ban: %v", err)
	}
}

// newMockDB 用 go-sqlmock 创建一个可被 GORM 使用的 *gorm.DB。
// 说明：我们用 mysql dialector 只是为了让 GORM 生成的 SQL/占位符风格稳定（? 占位符），
// 实际不会连接真实 MySQL。
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	// SkipDefaultTransaction: 避免 GORM 默认在每次写操作开启事务，简化 sqlmock 断言
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqldb, SkipInitializeWithVersion: true}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		_ = sqldb.Close()
		t.Fatalf("gorm.Open: %v", err)
	}

	return db, mock, sqldb
}
