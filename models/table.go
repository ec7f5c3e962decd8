package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	prefix = "sl_"
)

// User 门户用户在聊天子系统里的最小投影。
// 账号/密码/登录由门户侧负责，这里只保留展示需要的字段。
type User struct {
	ID        uint64 `gorm:"primarykey"`
	Username  string `gorm:"size:50;uniqueIndex;not null"` // 学号/账号
	Nickname  string `gorm:"size:100;not null"`            // 昵称
	Avatar    string `gorm:"size:500"`                     // 头像
	CreatedAt time.Time
	UpdatedAt time.Time

	// 关联关系
	Rooms    []RoomMember `gorm:"foreignKey:UserID"`
	Messages []Message    `gorm:"foreignKey:SenderID"`
}

func (User) TableName() string {
	return prefix + "user"
}

// Friend 好友关系表。成对写入：A->B 与 B->A 各一行。
type Friend struct {
	ID        uint64 `gorm:"primarykey"`
	UserID    uint64 `gorm:"index:idx_user_friend,unique;not null"` // 用户 ID
	FriendID  uint64 `gorm:"index:idx_user_friend,unique;not null"` // 好友 ID
	CreatedAt time.Time

	// 关联关系
	User   User `gorm:"foreignKey:UserID"`
	Friend User `gorm:"foreignKey:FriendID"`
}

func (Friend) TableName() string {
	return prefix + "friend"
}

// Block 屏蔽关系表（有方向）：UserID 屏蔽 BlockedID。
// 屏蔽只影响 UserID 视角的可见性，反方向不受影响。
// 屏蔽成立时好友关系必须同事务移除（二者互斥）。
type Block struct {
	ID        uint64 `gorm:"primarykey"`
	UserID    uint64 `gorm:"index:idx_user_blocked,unique;not null"` // 发起屏蔽的用户
	BlockedID uint64 `gorm:"index:idx_user_blocked,unique;not null"` // 被屏蔽的用户
	CreatedAt time.Time

	// 关联关系
	User    User `gorm:"foreignKey:UserID"`
	Blocked User `gorm:"foreignKey:BlockedID"`
}

func (Block) TableName() string {
	return prefix + "block"
}

// 房间类型
const (
	RoomTypePrivate = 1 // 1对1 私聊（受去重约束）
	RoomTypeGroup   = 2 // 群聊
)

// Room 聊天房间表。
// 删除为硬删除：房间/成员/消息/投票一并移除，没有软删字段。
type Room struct {
	ID uint64 `gorm:"primarykey"`

	// RoomAccount 对外房间号。私聊使用 private_<min>_<max> 规则生成，
	// 唯一索引即 1:1 去重约束；群聊使用随机 group_xxx。
	RoomAccount string `gorm:"column:room_account;type:varchar(32);uniqueIndex;not null"`

	Name          string  `gorm:"size:100"`               // 房间名称
	Type          uint8   `gorm:"type:tinyint;default:1"` // 类型: 1-私聊 2-群聊
	CreatorID     uint64  `gorm:"index"`                  // 创建者 ID
	LastMessageID *uint64 `gorm:"index"`                  // 最后一条消息 ID

	CreatedAt time.Time
	UpdatedAt time.Time

	// 关联关系
	Creator  User         `gorm:"foreignKey:CreatorID"`
	Members  []RoomMember `gorm:"foreignKey:RoomID;references:ID"`
	Messages []Message    `gorm:"foreignKey:RoomID;references:ID"`
}

func (Room) TableName() string {
	return prefix + "room"
}

// RoomMember 房间成员表。
// LastReadMsgID 即成员在该房间的已读游标：只向前推进，NULL 表示从未读过。
type RoomMember struct {
	ID            uint64  `gorm:"primarykey"`
	RoomID        uint64  `gorm:"index:idx_room_user,unique;not null"` // 房间 ID
	UserID        uint64  `gorm:"index:idx_room_user,unique;not null"` // 用户 ID
	IsOwner       bool    `gorm:"default:false"`                       // 创建时的发起人标记（展示用）
	LastReadMsgID *uint64 `gorm:"index"`                               // 已读游标
	JoinedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// 关联关系
	Room Room `gorm:"foreignKey:RoomID;references:ID"`
	User User `gorm:"foreignKey:UserID"`
}

func (RoomMember) TableName() string {
	return prefix + "room_member"
}

// 消息类型。与 message 包的 payload 变体一一对应。
const (
	MessageTypeText   = 1 // 文本
	MessageTypeImage  = 2 // 图片（外部对象存储 URL）
	MessageTypeFile   = 3 // 文件（外部对象存储 URL）
	MessageTypeURL    = 4 // 链接
	MessageTypeNotice = 5 // 公告
	MessageTypePoll   = 6 // 投票（Extra 带 poll_id）
)

// Message 消息表。只增不改；删除为发送者本人的硬删除。
// ID 由库自增分配，同一房间内严格递增，既是排序键也是已读游标单位。
type Message struct {
	ID        uint64         `gorm:"primarykey"`
	RoomID    uint64         `gorm:"index;not null"`         // 房间 ID
	SenderID  uint64         `gorm:"index;not null"`         // 发送者 ID
	Type      uint8          `gorm:"type:tinyint;default:1"` // 消息类型
	Content   string         `gorm:"type:text"`              // 文本/链接/公告内容；图片文件为空
	Extra     datatypes.JSON `gorm:"column:extra;type:json"` // 类型相关的附加字段
	CreatedAt time.Time

	// 关联关系
	Room   Room `gorm:"foreignKey:RoomID;references:ID"`
	Sender User `gorm:"foreignKey:SenderID"`
}

func (Message) TableName() string {
	return prefix + "message"
}

// Poll 投票定义，与一条 type=投票 的消息 1:1。
// ClosedAt 为空表示永不截止；一旦过了截止时间只读。
type Poll struct {
	ID        uint64 `gorm:"primarykey"`
	MessageID uint64 `gorm:"uniqueIndex;not null"` // 载体消息 ID
	RoomID    uint64 `gorm:"index;not null"`
	Title     string `gorm:"size:200;not null"`
	Anonymous bool   `gorm:"default:false"` // 匿名投票：tally 不返回投票人
	ClosedAt  *time.Time
	CreatedAt time.Time

	// 关联关系
	Message Message      `gorm:"foreignKey:MessageID"`
	Options []PollOption `gorm:"foreignKey:PollID"`
}

func (Poll) TableName() string {
	return prefix + "poll"
}

// PollOption 投票选项（保持创建顺序）。
type PollOption struct {
	ID       uint64 `gorm:"primarykey"`
	PollID   uint64 `gorm:"index;not null"`
	Position int    `gorm:"not null"` // 创建时的序号，展示排序用
	Label    string `gorm:"size:200;not null"`

	// 关联关系
	Poll Poll `gorm:"foreignKey:PollID"`
}

func (PollOption) TableName() string {
	return prefix + "poll_option"
}

// PollVote 投票记录。唯一索引 (poll_id, user_id)：一人一票的硬约束。
// 再投同一选项=取消，投不同选项=改票，都在单事务内完成。
type PollVote struct {
	ID        uint64 `gorm:"primarykey"`
	PollID    uint64 `gorm:"index:idx_poll_user,unique;not null"`
	OptionID  uint64 `gorm:"index;not null"`
	UserID    uint64 `gorm:"index:idx_poll_user,unique;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// 关联关系
	Poll   Poll       `gorm:"foreignKey:PollID"`
	Option PollOption `gorm:"foreignKey:OptionID"`
}

func (PollVote) TableName() string {
	return prefix + "poll_vote"
}

// ChatBan 聊天禁言记录，由门户的管理后台写入，本子系统只读。
// Permanent=false 时 ExpiresAt 必填；过期记录视同不存在。
// 只拦截写操作：被禁言用户仍可读、仍可退出/删除房间。
type ChatBan struct {
	ID         uint64 `gorm:"primarykey"`
	UserID     uint64 `gorm:"index;not null"`
	Permanent  bool   `gorm:"default:false"`
	Reason     string `gorm:"size:255"`
	ExpiresAt  *time.Time
	BannedByID uint64 `gorm:"index"` // 操作的管理员
	CreatedAt  time.Time

	// 关联关系
	User User `gorm:"foreignKey:UserID"`
}

func (ChatBan) TableName() string {
	return prefix + "chat_ban"
}

// Notification 通用通知流（非聊天）：用户维度只增日志，支持标记已读与删除。
// 聊天相关的房间事件（改名、进群等）也会投递到这里。
type Notification struct {
	ID        uint64    `gorm:"primarykey"`
	UserID    uint64    `gorm:"index:idx_user_created,priority:1;not null"`
	Type      string    `gorm:"size:64;index;not null"`
	Message   string    `gorm:"size:500;not null"`
	Link      string    `gorm:"size:500"` // 点击跳转目标，可为空
	IsRead    bool      `gorm:"default:false;index"`
	CreatedAt time.Time `gorm:"index:idx_user_created,priority:2"`

	// 关联关系
	User User `gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return prefix + "notification"
}
