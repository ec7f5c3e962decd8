package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campuslink/campus-chat/models"
	"github.com/campuslink/campus-chat/repository"
)

// ReadReceiptService 已读游标：RoomMember.last_read_msg_id 的单调推进与未读统计。
// 游标只会向前走，携带更小 ID 的迟到请求是幂等空操作，并发安全。
type ReadReceiptService struct {
	*Service
	memberDAO *repository.RoomMemberDAO
	msgDAO    *models.MessageDAO
}

func NewReadReceiptService(s *Service) *ReadReceiptService {
	return &ReadReceiptService{
		Service:   s,
		memberDAO: repository.NewRoomMemberDAO(s.DB),
		msgDAO:    models.NewMessageDAO(s.DB),
	}
}

// MarkRead 推进用户在房间的已读游标到 uptoMessageID（只向前）。
func (s *ReadReceiptService) MarkRead(roomID, userID, uptoMessageID uint64) error {
	if roomID == 0 || userID == 0 || uptoMessageID == 0 {
		return invalidf("room_id/message_id 不能为空")
	}

	hit, err := s.memberDAO.AdvanceReadCursor(roomID, userID, uptoMessageID, time.Now())
	if err != nil {
		return err
	}
	if !hit {
		return ErrNotMember
	}

	s.invalidateBadge(roomID)
	return nil
}

// UnreadCountForRoom 房间未读数：ID 大于游标、非本人发送、发送者未被屏蔽。
func (s *ReadReceiptService) UnreadCountForRoom(roomID, userID uint64) (int64, error) {
	cursor, ok, err := s.memberDAO.GetCursor(roomID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotMember
	}

	blocked, err := s.Friends.ListBlockedIDs(userID)
	if err != nil {
		return 0, err
	}
	return s.msgDAO.CountUnread(roomID, userID, cursor, blocked)
}

// UnreadCounts 批量未读数（房间列表用）：room_id -> count。
// 口径与 UnreadCountForRoom 完全一致。
func (s *ReadReceiptService) UnreadCounts(userID uint64, roomIDs []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}

	snapshot, err := s.memberDAO.CursorSnapshotByUser(userID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.Friends.ListBlockedIDs(userID)
	if err != nil {
		return nil, err
	}

	for _, rid := range roomIDs {
		cursor, ok := snapshot[rid]
		if !ok {
			continue // 非成员的房间不计
		}
		n, err := s.msgDAO.CountUnread(rid, userID, cursor, blocked)
		if err != nil {
			return nil, err
		}
		out[rid] = n
	}
	return out, nil
}

// RoomUnreadDTO 未读汇总里的单房间条目
type RoomUnreadDTO struct {
	RoomID      uint64      `json:"room_id"`
	UnreadCount int64       `json:"unread_count"`
	LastMessage *MessageDTO `json:"last_message,omitempty"`
}

// UnreadSummaryDTO 跨房间未读汇总（首页角标/弹层轮询用）
type UnreadSummaryDTO struct {
	TotalUnread int64           `json:"total_unread"`
	Rooms       []RoomUnreadDTO `json:"rooms"`
}

// UnreadSummaryAcrossRooms 跨房间汇总：逐房间套用与 list 相同的
// 屏蔽过滤与游标口径，再聚合。只返回有未读的房间。
func (s *ReadReceiptService) UnreadSummaryAcrossRooms(userID uint64) (*UnreadSummaryDTO, error) {
	roomIDs, err := s.memberDAO.ListRoomIDsByUser(userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.UnreadCounts(userID, roomIDs)
	if err != nil {
		return nil, err
	}

	blocked, err := s.Friends.ListBlockedIDs(userID)
	if err != nil {
		return nil, err
	}
	lastMsgs, err := s.msgDAO.LastVisibleByRooms(roomIDs, blocked)
	if err != nil {
		return nil, err
	}

	out := &UnreadSummaryDTO{Rooms: []RoomUnreadDTO{}}
	for _, rid := range roomIDs {
		n := counts[rid]
		if n == 0 {
			continue
		}
		item := RoomUnreadDTO{RoomID: rid, UnreadCount: n}
		if msg, ok := lastMsgs[rid]; ok {
			item.LastMessage = ToMessageDTO(msg)
		}
		out.Rooms = append(out.Rooms, item)
		out.TotalUnread += n
	}

	return out, nil
}

// ---- 角标缓存（可选，RDB 未配置时全部为空操作） ----
//
// 汇总是轮询热点，这里做一层很短 TTL 的 redis 缓存，
// 任何写入（发消息/推游标）按房间失效。永远以 DB 为准，缓存只是加速。

const badgeCacheTTL = 5 * time.Second

// CachedTotalUnread 读缓存的总未读；未命中时回源并写缓存。
func (s *ReadReceiptService) CachedTotalUnread(ctx context.Context, userID uint64) (int64, error) {
	if s.RDB == nil {
		sum, err := s.UnreadSummaryAcrossRooms(userID)
		if err != nil {
			return 0, err
		}
		return sum.TotalUnread, nil
	}

	key := fmt.Sprintf("slchat:badge:user:%d", userID)
	if n, err := s.RDB.Get(ctx, key).Int64(); err == nil {
		return n, nil
	}

	sum, err := s.UnreadSummaryAcrossRooms(userID)
	if err != nil {
		return 0, err
	}
	s.RDB.Set(ctx, key, sum.TotalUnread, badgeCacheTTL)
	return sum.TotalUnread, nil
}

// invalidateBadge 写路径失效：粗粒度按房间成员清掉用户角标缓存。
func (s *ReadReceiptService) invalidateBadge(roomID uint64) {
	if s.RDB == nil {
		return
	}
	ctx := context.Background()
	members, err := s.memberDAO.ListMemberIDs(roomID)
	if err != nil {
		return
	}
	keys := make([]string, 0, len(members))
	for _, uid := range members {
		keys = append(keys, fmt.Sprintf("slchat:badge:user:%d", uid))
	}
	if len(keys) > 0 {
		s.RDB.Del(ctx, keys...)
	}
}
