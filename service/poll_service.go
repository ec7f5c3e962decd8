package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campuslink/campus-chat/cons"
	"github.com/campuslink/campus-chat/message"
	"github.com/campuslink/campus-chat/models"
	"github.com/campuslink/campus-chat/repository"
)

// PollService 投票子系统。状态机很小：Open -> Closed，
// 截止时间一到自动只读；不设截止时间就永远开放。
type PollService struct {
	*Service
	memberDAO *repository.RoomMemberDAO
	voteDAO   *repository.PollVoteDAO
	msgDAO    *models.MessageDAO
}

func NewPollService(s *Service) *PollService {
	log.Println("NewPollService")
	return &PollService{
		Service:   s,
		memberDAO: repository.NewRoomMemberDAO(s.DB),
		voteDAO:   repository.NewPollVoteDAO(s.DB),
		msgDAO:    models.NewMessageDAO(s.DB),
	}
}

// Create 创建投票：投票定义 + 选项 + 载体消息（type=投票）一个事务落库。
// 校验：标题非空、至少 2 个非空选项、截止时间（若给）在未来。
func (s *PollService) Create(roomID, creatorID uint64, title string, options []string, anonymous bool, closedAt *time.Time) (*models.Message, *models.Poll, error) {
	if err := s.Bans.Check(creatorID); err != nil {
		return nil, nil, err
	}

	ok, err := s.memberDAO.IsMember(roomID, creatorID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNotMember
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil, invalidf("投票标题不能为空")
	}
	clean := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		clean = append(clean, opt)
	}
	if len(clean) < 2 {
		return nil, nil, invalidf("投票至少需要 2 个非空选项")
	}
	now := time.Now()
	if closedAt != nil && !closedAt.After(now) {
		return nil, nil, invalidf("截止时间必须在未来")
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}
	defer tx.Rollback()

	msg := &models.Message{
		RoomID:   roomID,
		SenderID: creatorID,
		Type:     models.MessageTypePoll,
		Content:  title,
	}
	if err := tx.Create(msg).Error; err != nil {
		return nil, nil, err
	}

	poll := &models.Poll{
		MessageID: msg.ID,
		RoomID:    roomID,
		Title:     title,
		Anonymous: anonymous,
		ClosedAt:  closedAt,
		CreatedAt: now,
	}
	if err := tx.Create(poll).Error; err != nil {
		return nil, nil, err
	}

	for i, label := range clean {
		opt := &models.PollOption{PollID: poll.ID, Position: i, Label: label}
		if err := tx.Create(opt).Error; err != nil {
			return nil, nil, err
		}
		poll.Options = append(poll.Options, *opt)
	}

	// 载体消息回填 poll_id
	_, extra, err := message.Poll{Title: title, PollID: poll.ID}.Encode()
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Model(&models.Message{}).
		Where("id = ?", msg.ID).
		Update("extra", datatypes.JSON(extra)).Error; err != nil {
		return nil, nil, err
	}
	msg.Extra = datatypes.JSON(extra)

	if err := tx.Model(&models.Room{}).
		Where("id = ?", roomID).
		UpdateColumn("last_message_id", msg.ID).Error; err != nil {
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	// 创建者对载体消息天然已读
	if _, err := s.memberDAO.AdvanceReadCursor(roomID, creatorID, msg.ID, now); err != nil {
		log.Printf("advance creator cursor error: %v", err)
	}

	if s.Notify != nil {
		members, _ := s.memberDAO.ListMemberIDs(roomID)
		s.Notify.PublishToUsers(members, cons.EventRoomPollCreated,
			fmt.Sprintf("房间发起了投票：%s", title),
			fmt.Sprintf("/chat/room/%d", roomID))
	}

	return msg, poll, nil
}

// Vote 投/撤/改票，messageID 为载体消息。toggle/switch 语义：
//   - 尚未投 -> 新增一票
//   - 已投同一选项 -> 撤销（零票）
//   - 已投其他选项 -> 原地改票
//
// 整个判定+变更在单事务内，并发读永远看不到一人两票的中间态；
// (poll_id, user_id) 唯一索引兜底并发重复插入。
func (s *PollService) Vote(messageID, userID, optionID uint64) error {
	poll, err := s.GetPollByMessageID(messageID)
	if err != nil {
		return err
	}

	if poll.ClosedAt != nil && time.Now().After(*poll.ClosedAt) {
		return ErrPollClosed
	}

	if err := s.Bans.Check(userID); err != nil {
		return err
	}

	ok, err := s.memberDAO.IsMember(poll.RoomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}

	// 选项必须属于该投票
	var optCount int64
	if err := s.DB.Model(&models.PollOption{}).
		Where("id = ? AND poll_id = ?", optionID, poll.ID).
		Count(&optCount).Error; err != nil {
		return err
	}
	if optCount == 0 {
		return invalidf("选项不属于该投票")
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	dao := s.voteDAO.WithDB(tx)
	existing, err := dao.FindByPollAndUser(poll.ID, userID)
	if err != nil {
		return err
	}

	switch {
	case existing == nil:
		now := time.Now()
		if err := dao.Create(&models.PollVote{
			PollID:    poll.ID,
			OptionID:  optionID,
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
	case existing.OptionID == optionID:
		// 同一选项再点一次 = 撤票
		if err := dao.DeleteByID(existing.ID); err != nil {
			return err
		}
	default:
		// 改票：原地更新，不会出现两行
		if err := dao.SwitchOption(existing.ID, optionID); err != nil {
			return err
		}
	}

	return tx.Commit().Error
}

// GetPollByMessageID 按载体消息取投票定义（带选项）
func (s *PollService) GetPollByMessageID(messageID uint64) (*models.Poll, error) {
	var poll models.Poll
	err := s.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("message_id = ?", messageID).First(&poll).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &poll, nil
}
