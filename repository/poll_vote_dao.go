package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/campuslink/campus-chat/models"
)

// PollVoteDAO 封装 PollVote 相关的数据库操作。
// 改票/撤票的编排（toggle/switch）在 PollService 的事务里完成。
type PollVoteDAO struct {
	db *gorm.DB
}

func NewPollVoteDAO(db *gorm.DB) *PollVoteDAO {
	return &PollVoteDAO{db: db}
}

// WithDB 用于在事务（tx）中复用 DAO
func (dao *PollVoteDAO) WithDB(db *gorm.DB) *PollVoteDAO {
	if db == nil {
		return dao
	}
	return &PollVoteDAO{db: db}
}

// FindByPollAndUser 取用户在某投票下的当前票。没有投过返回 (nil, nil)。
func (dao *PollVoteDAO) FindByPollAndUser(pollID, userID uint64) (*models.PollVote, error) {
	var v models.PollVote
	err := dao.db.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// Create 投票。唯一索引 (poll_id, user_id) 兜底并发下的一人一票。
func (dao *PollVoteDAO) Create(v *models.PollVote) error {
	return dao.db.Create(v).Error
}

// SwitchOption 改票：原地更新 option_id，不产生第二行。
func (dao *PollVoteDAO) SwitchOption(voteID, optionID uint64) error {
	return dao.db.Model(&models.PollVote{}).
		Where("id = ?", voteID).
		Update("option_id", optionID).Error
}

// DeleteByID 撤票
func (dao *PollVoteDAO) DeleteByID(voteID uint64) error {
	return dao.db.Delete(&models.PollVote{}, voteID).Error
}

// ListByPolls 批量取多个投票的全部票（list 管线的投票附加步骤用）。
func (dao *PollVoteDAO) ListByPolls(pollIDs []uint64) ([]models.PollVote, error) {
	if len(pollIDs) == 0 {
		return []models.PollVote{}, nil
	}
	var votes []models.PollVote
	err := dao.db.Where("poll_id IN ?", pollIDs).
		Order("id ASC").
		Find(&votes).Error
	return votes, err
}
