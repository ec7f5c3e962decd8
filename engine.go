package campus_chat

import (
	"log"
	"sync"

	"github.com/campuslink/campus-chat/middleware"
	model "github.com/campuslink/campus-chat/models"
	"github.com/campuslink/campus-chat/service"
	"github.com/gin-gonic/gin"
)

type ChatEngine struct {
	config *Config

	AuthService         *service.AuthService // 鉴权服务
	FriendService       *service.FriendService
	RoomService         *service.RoomService
	MsgService          *service.MessageService
	PollService         *service.PollService
	ReadReceiptService  *service.ReadReceiptService
	NotificationService *service.NotificationService
	BanService          *service.BanService
}

var (
	Instance *ChatEngine
	once     sync.Once
)

// NewEngine 创建实例
// 使用选项模式传入配置，Option回调
func NewEngine(opts ...Option) *ChatEngine {
	once.Do(func() {
		c := &Config{
			TablePrefix: "sl_", // Default
		}
		for _, opt := range opts {
			opt(c)
		}

		Instance = &ChatEngine{config: c}

		// 初始化基础 Service
		baseService := &service.Service{
			DB:          c.DB,
			RDB:         c.RDB,
			TablePrefix: c.TablePrefix,
			Storage:     c.Storage,
		}

		// 横切服务先挂到 base 上，业务 Service 通过共享的 base 指针访问
		baseService.Bans = service.NewBanService(baseService)
		baseService.Friends = service.NewFriendService(baseService)
		baseService.ReadReceipt = service.NewReadReceiptService(baseService)
		baseService.Notify = service.NewNotificationService(baseService)

		// 初始化各个 Service
		Instance.BanService = baseService.Bans
		Instance.FriendService = baseService.Friends
		Instance.ReadReceiptService = baseService.ReadReceipt
		Instance.NotificationService = baseService.Notify
		Instance.RoomService = service.NewRoomService(baseService)
		Instance.MsgService = service.NewMessageService(baseService)
		Instance.PollService = service.NewPollService(baseService)
		Instance.AuthService = service.NewAuthService(baseService) // 初始化鉴权服务

		// 迁移表
		if err := Instance.AutoMigrate(); err != nil {
			log.Printf("AutoMigrate failed: %v", err)
		}
	})

	return Instance
}

func (c *ChatEngine) AutoMigrate() error {
	db := c.config.DB
	log.Println("AutoMigrate...")
	return db.AutoMigrate(
		&model.User{},
		&model.Friend{},
		&model.Block{},
		&model.Room{},
		&model.RoomMember{},
		&model.Message{},
		&model.Poll{},
		&model.PollOption{},
		&model.PollVote{},
		&model.ChatBan{},
		&model.Notification{},
	)
}

/*
*	提供的HTTP接口在此处，也可以直接自己写controller然后调用service
*	推荐自己写controller，因为这样更灵活
 */

// GinAuthMiddleware 返回配置好的 Gin 鉴权中间件
// 使用 ChatEngine 内部的 AuthService 和 Redis 配置
//
// 使用示例:
//
//	engine := campus_chat.NewEngine(...)
//	r := gin.Default()
//	r.Use(engine.GinAuthMiddleware(nil)) // 使用默认配置
//	// 或自定义配置
//	r.Use(engine.GinAuthMiddleware(&middleware.AuthOptions{
//	    HeaderKey: "X-Token",
//	    QueryKey: "access_token",
//	}))
func (c *ChatEngine) GinAuthMiddleware(opt *middleware.AuthOptions) gin.HandlerFunc {
	return middleware.GinAuthMiddleware(c.AuthService, opt)
}

// RegisterRoutes 把全部聊天接口挂到宿主的路由组上（组内需已套鉴权中间件）。
func (c *ChatEngine) RegisterRoutes(rg *gin.RouterGroup) {
	// 房间
	rg.POST("/rooms/private", c.GinHandleCreatePrivateRoom)
	rg.POST("/rooms/group", c.GinHandleCreateGroupRoom)
	rg.GET("/rooms", c.GinHandleGetUserRooms)
	rg.GET("/rooms/:room_id/members", c.GinHandleGetRoomMembers)
	rg.POST("/rooms/:room_id/invite", c.GinHandleInviteMembers)
	rg.POST("/rooms/:room_id/rename", c.GinHandleRenameRoom)
	rg.POST("/rooms/:room_id/leave", c.GinHandleLeaveRoom)
	rg.DELETE("/rooms/:room_id", c.GinHandleDeleteRoom)

	// 消息
	rg.POST("/rooms/:room_id/messages", c.GinHandleSendMessage)
	rg.GET("/rooms/:room_id/messages", c.GinHandleListMessages)
	rg.POST("/rooms/:room_id/upload", c.GinHandleUploadAttachment)
	rg.POST("/rooms/:room_id/read", c.GinHandleMarkRead)
	rg.DELETE("/messages/:message_id", c.GinHandleDeleteMessage)
	rg.DELETE("/notices/:message_id", c.GinHandleDeleteNotice)

	// 投票
	rg.POST("/rooms/:room_id/polls", c.GinHandleCreatePoll)
	rg.POST("/polls/:message_id/vote", c.GinHandleVotePoll)
	rg.GET("/polls/:message_id", c.GinHandleGetPoll)

	// 好友 / 屏蔽
	rg.POST("/friends/:friend_id", c.GinHandleAddFriend)
	rg.DELETE("/friends/:friend_id", c.GinHandleRemoveFriend)
	rg.GET("/friends", c.GinHandleGetFriendList)
	rg.POST("/blocks/:user_id", c.GinHandleSetBlock)

	// 通知与未读
	rg.GET("/notifications", c.GinHandleListNotifications)
	rg.POST("/notifications/read", c.GinHandleMarkNotificationsRead)
	rg.DELETE("/notifications/:notification_id", c.GinHandleDeleteNotification)
	rg.GET("/unread/summary", c.GinHandleUnreadSummary)
	rg.GET("/unread/badge", c.GinHandleUnreadBadge)
}
