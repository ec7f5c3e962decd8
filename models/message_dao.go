package models

import (
	"gorm.io/gorm"
)

// MessageDAO 封装 Message 相关的数据库操作
type MessageDAO struct {
	db *gorm.DB
}

// NewMessageDAO 创建 MessageDAO 实例
func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{db: db}
}

// WithDB 用于在事务（tx）中复用 DAO
func (dao *MessageDAO) WithDB(db *gorm.DB) *MessageDAO {
	if db == nil {
		return dao
	}
	return &MessageDAO{db: db}
}

// Create 创建消息。自增 ID 即房间内的排序键/已读游标单位。
func (dao *MessageDAO) Create(msg *Message) error {
	return dao.db.Create(msg).Error
}

// FindByID 根据ID查找消息
func (dao *MessageDAO) FindByID(id uint64) (*Message, error) {
	var msg Message
	err := dao.db.Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindByRoomAsc 获取房间全部消息，按 ID 升序（list 管线的第一步，不做任何过滤）。
func (dao *MessageDAO) FindByRoomAsc(roomID uint64) ([]Message, error) {
	var messages []Message
	err := dao.db.Preload("Sender").
		Where("room_id = ?", roomID).
		Order("id ASC").
		Find(&messages).Error
	return messages, err
}

// DeleteByID 硬删除一条消息（归属校验在 service 层完成）。
func (dao *MessageDAO) DeleteByID(id uint64) error {
	return dao.db.Delete(&Message{}, id).Error
}

// CountUnread 统计未读：id 大于游标、非本人发送、发送者不在屏蔽集合内。
// cursor 为 nil 表示从未读过（全部计入）。
func (dao *MessageDAO) CountUnread(roomID, userID uint64, cursor *uint64, blocked []uint64) (int64, error) {
	q := dao.db.Model(&Message{}).
		Where("room_id = ? AND sender_id <> ?", roomID, userID)
	if cursor != nil {
		q = q.Where("id > ?", *cursor)
	}
	if len(blocked) > 0 {
		q = q.Where("sender_id NOT IN ?", blocked)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// LastVisibleByRooms 批量取每个房间对 viewer 可见的最后一条消息。
// 返回 room_id -> message。屏蔽的发送者被排除，保证预览与 list 口径一致。
func (dao *MessageDAO) LastVisibleByRooms(roomIDs []uint64, blocked []uint64) (map[uint64]*Message, error) {
	out := make(map[uint64]*Message)
	if len(roomIDs) == 0 {
		return out, nil
	}

	sub := dao.db.Model(&Message{}).Select("MAX(id)").Where("room_id IN ?", roomIDs)
	if len(blocked) > 0 {
		sub = sub.Where("sender_id NOT IN ?", blocked)
	}
	sub = sub.Group("room_id")

	var msgs []Message
	if err := dao.db.Where("id IN (?)", sub).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i := range msgs {
		out[msgs[i].RoomID] = &msgs[i]
	}
	return out, nil
}
