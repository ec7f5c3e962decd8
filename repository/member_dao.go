package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/campuslink/campus-chat/models"
)

// RoomMemberDAO 封装 RoomMember 相关的数据库操作
//
// 约定：
// - 只做"数据访问"（CRUD/查询封装），不做业务编排（权限、通知等）。
// - 事务边界应由 service 控制；如需在事务中执行，请使用 WithDB(tx)。
type RoomMemberDAO struct {
	db *gorm.DB
}

func NewRoomMemberDAO(db *gorm.DB) *RoomMemberDAO {
	return &RoomMemberDAO{db: db}
}

// WithDB 用于在事务（tx）中复用 DAO
func (dao *RoomMemberDAO) WithDB(db *gorm.DB) *RoomMemberDAO {
	if db == nil {
		return dao
	}
	return &RoomMemberDAO{db: db}
}

// IsMember 检查用户是否是房间成员
func (dao *RoomMemberDAO) IsMember(roomID, userID uint64) (bool, error) {
	var count int64
	err := dao.db.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListMemberIDs 获取房间成员的用户ID列表
func (dao *RoomMemberDAO) ListMemberIDs(roomID uint64) ([]uint64, error) {
	var ids []uint64
	err := dao.db.Model(&models.RoomMember{}).
		Where("room_id = ?", roomID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// MemberCursor 成员已读游标快照行。LastReadMsgID 为 nil 表示从未读过。
type MemberCursor struct {
	UserID        uint64
	LastReadMsgID *uint64
}

// ListCursors 取房间全部成员的已读游标（read_count 计算的输入）。
func (dao *RoomMemberDAO) ListCursors(roomID uint64) ([]MemberCursor, error) {
	var rows []MemberCursor
	err := dao.db.Model(&models.RoomMember{}).
		Select("user_id, last_read_msg_id").
		Where("room_id = ?", roomID).
		Find(&rows).Error
	return rows, err
}

// GetCursor 取单个成员的已读游标。成员不存在时 ok=false。
func (dao *RoomMemberDAO) GetCursor(roomID, userID uint64) (cursor *uint64, ok bool, err error) {
	var m models.RoomMember
	err = dao.db.Select("last_read_msg_id").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return m.LastReadMsgID, true, nil
}

// AdvanceReadCursor 单调推进已读游标：
// last_read_msg_id = GREATEST(last_read_msg_id, upto)，小于当前值的调用是幂等空操作。
// 返回是否命中了成员行（未命中多半是非成员）。
func (dao *RoomMemberDAO) AdvanceReadCursor(roomID, userID, upto uint64, now time.Time) (bool, error) {
	res := dao.db.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]any{
			"last_read_msg_id": gorm.Expr("CASE WHEN last_read_msg_id IS NULL OR last_read_msg_id < ? THEN ? ELSE last_read_msg_id END", upto, upto),
			"updated_at":       now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListRoomIDsByUser 获取用户加入的全部房间 ID
func (dao *RoomMemberDAO) ListRoomIDsByUser(userID uint64) ([]uint64, error) {
	var ids []uint64
	err := dao.db.Model(&models.RoomMember{}).
		Where("user_id = ?", userID).
		Pluck("room_id", &ids).Error
	return ids, err
}

// CursorSnapshotByUser 取用户所有房间的已读游标快照：room_id -> cursor。
// 用于跨房间未读汇总，一次查询避免 N 次单查。
func (dao *RoomMemberDAO) CursorSnapshotByUser(userID uint64) (map[uint64]*uint64, error) {
	type row struct {
		RoomID        uint64
		LastReadMsgID *uint64
	}
	var rows []row
	if err := dao.db.Model(&models.RoomMember{}).
		Select("room_id, last_read_msg_id").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uint64]*uint64, len(rows))
	for _, r := range rows {
		out[r.RoomID] = r.LastReadMsgID
	}
	return out, nil
}

// DeleteMember 移除成员行（退出房间）。返回是否真的删掉了。
func (dao *RoomMemberDAO) DeleteMember(roomID, userID uint64) (bool, error) {
	res := dao.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomMember{})
	return res.RowsAffected > 0, res.Error
}
