package service

import (
	"fmt"
	"log"
	"time"

	"github.com/campuslink/campus-chat/cons"
	"github.com/campuslink/campus-chat/models"
)

// FriendService 好友 + 屏蔽关系。
// 好友是对称关系（成对两行）；屏蔽是有方向的单行，二者互斥：
// 屏蔽成立的同一事务里，成对好友行必须移除。
type FriendService struct {
	*Service
}

func NewFriendService(s *Service) *FriendService {
	log.Println("NewFriendService")
	return &FriendService{Service: s}
}

// AddFriend 建立好友关系（成对写入）。任一方向存在屏蔽时拒绝。
func (s *FriendService) AddFriend(userID, friendID uint64) error {
	if userID == 0 || friendID == 0 {
		return invalidf("user_id 不能为空")
	}
	if userID == friendID {
		return invalidf("不能添加自己为好友")
	}

	blocked, err := s.blockExistsEitherWay(userID, friendID)
	if err != nil {
		return err
	}
	if blocked {
		return invalidf("存在屏蔽关系，无法添加好友")
	}

	isFriend, err := s.CheckFriendship(userID, friendID)
	if err != nil {
		return err
	}
	if isFriend {
		return invalidf("已经是好友关系")
	}

	now := time.Now()
	rows := []models.Friend{
		{UserID: userID, FriendID: friendID, CreatedAt: now},
		{UserID: friendID, FriendID: userID, CreatedAt: now},
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if err := tx.Create(&rows).Error; err != nil {
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	if s.Notify != nil {
		s.Notify.Publish(friendID, cons.EventFriendAdded,
			"有人添加你为好友", fmt.Sprintf("/user/%d", userID))
	}

	return nil
}

// RemoveFriend 删除好友（双向）
func (s *FriendService) RemoveFriend(userID, friendID uint64) error {
	res := s.DB.
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		Delete(&models.Friend{})
	if res.Error != nil {
		return res.Error
	}

	// 真有关系被解除时才通知对方
	if s.Notify != nil && res.RowsAffected > 0 {
		s.Notify.Publish(friendID, cons.EventFriendDeleted,
			"有好友解除了与你的好友关系", "")
	}

	return nil
}

// SetBlock 设置/解除屏蔽。屏蔽是有方向的：viewer 屏蔽 target 后
// target 的消息对 viewer 不可见，viewer 的消息对 target 仍可见。
// 屏蔽成立时同事务移除双向好友行。
func (s *FriendService) SetBlock(viewerID, targetID uint64, blocked bool) error {
	if viewerID == 0 || targetID == 0 {
		return invalidf("user_id 不能为空")
	}
	if viewerID == targetID {
		return invalidf("不能屏蔽自己")
	}

	if !blocked {
		return s.DB.
			Where("user_id = ? AND blocked_id = ?", viewerID, targetID).
			Delete(&models.Block{}).Error
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	// 幂等：重复屏蔽不报错
	blk := &models.Block{UserID: viewerID, BlockedID: targetID}
	if err := tx.FirstOrCreate(blk, map[string]any{"user_id": viewerID, "blocked_id": targetID}).Error; err != nil {
		return err
	}

	// 屏蔽与好友互斥：双向好友行一并移除
	if err := tx.
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			viewerID, targetID, targetID, viewerID).
		Delete(&models.Friend{}).Error; err != nil {
		return err
	}

	return tx.Commit().Error
}

// IsBlocked viewer 是否屏蔽了 target（单方向）
func (s *FriendService) IsBlocked(viewerID, targetID uint64) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Block{}).
		Where("user_id = ? AND blocked_id = ?", viewerID, targetID).
		Count(&count).Error
	return count > 0, err
}

// ListBlockedIDs viewer 屏蔽的全部用户 ID（可见性过滤的输入）
func (s *FriendService) ListBlockedIDs(viewerID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.DB.Model(&models.Block{}).
		Where("user_id = ?", viewerID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}

// BlockedSet viewer 屏蔽集合（set 形式，list 管线按 sender 快速判定用）
func (s *FriendService) BlockedSet(viewerID uint64) (map[uint64]struct{}, error) {
	ids, err := s.ListBlockedIDs(viewerID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// CheckFriendship 检查是否是好友关系
func (s *FriendService) CheckFriendship(userID, friendID uint64) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Friend{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	return count > 0, err
}

// GetFriendList 获取好友 ID 列表
func (s *FriendService) GetFriendList(userID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.DB.Model(&models.Friend{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}

func (s *FriendService) blockExistsEitherWay(a, b uint64) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Block{}).
		Where("(user_id = ? AND blocked_id = ?) OR (user_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}
