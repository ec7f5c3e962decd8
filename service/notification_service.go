package service

import (
	"errors"
	"time"

	"github.com/campuslink/campus-chat/models"
)

// NotificationService 通用通知流：用户维度的只增日志（帖子被评论、
// 房间事件等），客户端轮询拉取，支持标记已读和删除。
// 聊天未读与通知未读在 GetUnreadSummary 里合并成一个角标口径。
type NotificationService struct {
	*Service
}

func NewNotificationService(s *Service) *NotificationService {
	return &NotificationService{Service: s}
}

// Publish 给单个用户投递一条通知
func (s *NotificationService) Publish(userID uint64, typ, msg, link string) error {
	if userID == 0 {
		return errors.New("user_id is required")
	}
	if typ == "" || msg == "" {
		return errors.New("type/message is required")
	}
	row := &models.Notification{
		UserID:    userID,
		Type:      typ,
		Message:   msg,
		Link:      link,
		CreatedAt: time.Now(),
	}
	return s.DB.Create(row).Error
}

// PublishToUsers 批量投递（房间事件对全体成员广播用）。
// 尽力而为：失败只影响通知，不影响主流程，调用方通常忽略返回值。
func (s *NotificationService) PublishToUsers(userIDs []uint64, typ, msg, link string) error {
	if typ == "" || msg == "" {
		return errors.New("type/message is required")
	}

	now := time.Now()
	seen := make(map[uint64]struct{}, len(userIDs))
	rows := make([]models.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		if uid == 0 {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		rows = append(rows, models.Notification{
			UserID:    uid,
			Type:      typ,
			Message:   msg,
			Link:      link,
			CreatedAt: now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.DB.Create(&rows).Error
}

// NotificationDTO HTTP 返回结构
type NotificationDTO struct {
	ID        uint64    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// List 拉取用户通知，按 ID 倒序游标分页。
// cursor=0 从最新开始；否则取 id < cursor。返回下一页游标。
func (s *NotificationService) List(userID uint64, cursor uint64, limit int, unreadOnly bool) ([]NotificationDTO, uint64, error) {
	if userID == 0 {
		return nil, 0, errors.New("user_id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	q := s.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := q.Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]NotificationDTO, 0, len(rows))
	var nextCursor uint64
	for _, r := range rows {
		out = append(out, NotificationDTO{
			ID:        r.ID,
			Type:      r.Type,
			Message:   r.Message,
			Link:      r.Link,
			IsRead:    r.IsRead,
			CreatedAt: r.CreatedAt,
		})
		nextCursor = r.ID
	}

	return out, nextCursor, nil
}

// MarkReadByIDs 按 ID 批量标记已读（只影响自己的行）
func (s *NotificationService) MarkReadByIDs(userID uint64, ids []uint64) error {
	if userID == 0 {
		return errors.New("user_id is required")
	}
	if len(ids) == 0 {
		return nil
	}
	return s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("is_read", true).Error
}

// DeleteByID 删除一条通知（只能删自己的）
func (s *NotificationService) DeleteByID(userID, id uint64) error {
	res := s.DB.Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread 未读通知数
func (s *NotificationService) CountUnread(userID uint64) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// UnreadBadgeDTO 首页角标：聊天未读 + 通知未读的合并视图
type UnreadBadgeDTO struct {
	ChatUnread         int64           `json:"chat_unread"`
	NotificationUnread int64           `json:"notification_unread"`
	Rooms              []RoomUnreadDTO `json:"rooms"`
}

// GetUnreadSummary 聚合口径：聊天按房间逐一套用屏蔽+游标规则
// （委托 ReadReceiptService），通知直接计数。
func (s *NotificationService) GetUnreadSummary(userID uint64) (*UnreadBadgeDTO, error) {
	chat, err := s.ReadReceipt.UnreadSummaryAcrossRooms(userID)
	if err != nil {
		return nil, err
	}
	notif, err := s.CountUnread(userID)
	if err != nil {
		return nil, err
	}
	return &UnreadBadgeDTO{
		ChatUnread:         chat.TotalUnread,
		NotificationUnread: notif,
		Rooms:              chat.Rooms,
	}, nil
}
