package cons

// 统一的房间通知事件类型（notification.type）
const (
	EventRoomMemberAdded = "room.member.added" // 成员被拉入房间
	EventRoomMemberQuit  = "room.member.quit"  // 成员退出房间
	EventRoomRenamed     = "room.renamed"      // 房间改名
	EventRoomDeleted     = "room.deleted"      // 房间被解散
	EventRoomNoticePost  = "room.notice.post"  // 公告发布
	EventRoomPollCreated = "room.poll.created" // 投票创建
)

// 统一的用户侧通知事件类型
const (
	EventFriendAdded   = "friend.added"   // 好友添加
	EventFriendDeleted = "friend.deleted" // 好友删除
	EventSystemNotice  = "system.notice"  // 系统通知
)
