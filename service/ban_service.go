package service

import (
	"time"

	"github.com/campuslink/campus-chat/models"
)

// BanService 禁言闸。禁言记录由门户管理后台写入，这里是纯读：
// 写操作入口调用 Check，命中则携带禁言详情失败，调用方能渲染精确倒计时。
// 读操作、退出房间、删除房间不经过该闸。
type BanService struct {
	*Service
}

func NewBanService(s *Service) *BanService {
	return &BanService{Service: s}
}

// Check 用户当前是否允许写操作。允许返回 nil，否则返回 *BanError。
func (s *BanService) Check(userID uint64) error {
	ban, err := s.ActiveBan(userID)
	if err != nil {
		return err
	}
	if ban == nil {
		return nil
	}
	if ban.Permanent {
		return &BanError{Permanent: true, Reason: ban.Reason}
	}
	return &BanError{Reason: ban.Reason, ExpiresAt: ban.ExpiresAt}
}

// ActiveBan 取用户当前生效的禁言记录；没有（或全部过期）返回 nil。
// 永久禁言优先于临时禁言。
func (s *BanService) ActiveBan(userID uint64) (*models.ChatBan, error) {
	if userID == 0 {
		return nil, nil
	}

	var bans []models.ChatBan
	err := s.DB.Model(&models.ChatBan{}).
		Where("user_id = ?", userID).
		Where("permanent = ? OR expires_at > ?", true, time.Now()).
		Order("permanent DESC").
		Order("expires_at DESC").
		Limit(1).
		Find(&bans).Error
	if err != nil {
		return nil, err
	}
	if len(bans) == 0 {
		return nil, nil
	}
	return &bans[0], nil
}
