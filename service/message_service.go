package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campuslink/campus-chat/cons"
	"github.com/campuslink/campus-chat/message"
	"github.com/campuslink/campus-chat/models"
	"github.com/campuslink/campus-chat/repository"
)

// MessageDTO 消息数据传输对象（预览等轻量场景）
type MessageDTO struct {
	ID        uint64         `json:"id"`
	RoomID    uint64         `json:"room_id"`
	SenderID  uint64         `json:"sender_id"`
	Type      uint8          `json:"type"`
	Content   string         `json:"content"`
	Extra     datatypes.JSON `json:"extra,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToMessageDTO 将 Message 转换为 MessageDTO
func ToMessageDTO(msg *models.Message) *MessageDTO {
	if msg == nil {
		return nil
	}
	return &MessageDTO{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Type:      msg.Type,
		Content:   msg.Content,
		Extra:     msg.Extra,
		CreatedAt: msg.CreatedAt,
	}
}

// SenderDTO 发送人信息（用于消息列表返回）
type SenderDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// PollOptionTallyDTO 单个选项的计票
type PollOptionTallyDTO struct {
	OptionID uint64   `json:"option_id"`
	Label    string   `json:"label"`
	Count    int      `json:"count"`
	Voters   []uint64 `json:"voters"` // 匿名投票恒为空
}

// PollViewDTO 投票附加视图（挂在 type=投票 的消息上）
type PollViewDTO struct {
	PollID     uint64               `json:"poll_id"`
	Title      string               `json:"title"`
	Anonymous  bool                 `json:"anonymous"`
	ClosedAt   *time.Time           `json:"closed_at,omitempty"`
	Closed     bool                 `json:"closed"`
	Options    []PollOptionTallyDTO `json:"options"`
	MyOptionID *uint64              `json:"my_option_id,omitempty"` // viewer 自己投的选项
	NotVoted   []uint64             `json:"not_voted"`              // 还没投票的现任成员
}

// MessageViewDTO 消息列表项：消息本体 + 已读数 + 投票视图。
type MessageViewDTO struct {
	ID        uint64         `json:"id"`
	RoomID    uint64         `json:"room_id"`
	SenderID  uint64         `json:"sender_id"`
	Sender    *SenderDTO     `json:"sender,omitempty"`
	Type      uint8          `json:"type"`
	Content   string         `json:"content"`
	Extra     datatypes.JSON `json:"extra,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	// ReadCount 除发送者外、游标还没读到这条的现任成员数（0 = 全员已读）
	ReadCount int `json:"read_count"`

	Poll *PollViewDTO `json:"poll,omitempty"`
}

type MessageService struct {
	*Service
	messageDAO *models.MessageDAO
	memberDAO  *repository.RoomMemberDAO
	voteDAO    *repository.PollVoteDAO
}

func NewMessageService(s *Service) *MessageService {
	log.Println("NewMessageService")
	return &MessageService{
		Service:    s,
		messageDAO: models.NewMessageDAO(s.DB),
		memberDAO:  repository.NewRoomMemberDAO(s.DB),
		voteDAO:    repository.NewPollVoteDAO(s.DB),
	}
}

// Send 发送消息。前置：禁言闸放行、发送者是房间现任成员、payload 自校验通过。
// 自增 ID 即排序键；发送者自己的已读游标顺带推进到新消息。
func (s *MessageService) Send(roomID, senderID uint64, p message.Payload) (*models.Message, error) {
	if err := s.Bans.Check(senderID); err != nil {
		return nil, err
	}

	ok, err := s.memberDAO.IsMember(roomID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	if err := p.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}

	content, extra, err := p.Encode()
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		RoomID:   roomID,
		SenderID: senderID,
		Type:     p.Kind(),
		Content:  content,
		Extra:    datatypes.JSON(extra),
	}
	if err := s.messageDAO.Create(msg); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.DB.Model(&models.Room{}).Where("id = ?", roomID).
		UpdateColumn("last_message_id", msg.ID).Error; err != nil {
		log.Printf("update room last_message_id error: %v", err)
	}

	// 发的人对自己的消息天然已读
	if _, err := s.memberDAO.AdvanceReadCursor(roomID, senderID, msg.ID, now); err != nil {
		log.Printf("advance sender cursor error: %v", err)
	}

	if s.ReadReceipt != nil {
		s.ReadReceipt.invalidateBadge(roomID)
	}

	// 公告入库后广播到成员的通知流
	if s.Notify != nil && msg.Type == models.MessageTypeNotice {
		members, _ := s.memberDAO.ListMemberIDs(roomID)
		s.Notify.PublishToUsers(members, cons.EventRoomNoticePost,
			fmt.Sprintf("房间发布了新公告：%s", content),
			fmt.Sprintf("/chat/room/%d", roomID))
	}

	return msg, nil
}

// ListRoomMessages 房间消息列表，按 ID 升序。这是最重的读路径，
// 拆成独立可测的几步，基于同一次快照：
//  1. 取全量候选行
//  2. 屏蔽过滤（viewer 屏蔽的发送者的消息被丢弃，方向性的）
//  3. 附加 read_count（成员游标对比）
//  4. 投票消息附加 tally / viewer 自己的票 / 未投名单
func (s *MessageService) ListRoomMessages(roomID, viewerID uint64) ([]MessageViewDTO, error) {
	ok, err := s.memberDAO.IsMember(roomID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	// 快照：候选行 + 成员游标 + 屏蔽集合
	msgs, err := s.messageDAO.FindByRoomAsc(roomID)
	if err != nil {
		return nil, err
	}
	cursors, err := s.memberDAO.ListCursors(roomID)
	if err != nil {
		return nil, err
	}
	blockedSet, err := s.Friends.BlockedSet(viewerID)
	if err != nil {
		return nil, err
	}

	// 2. 屏蔽过滤
	visible := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if _, hidden := blockedSet[m.SenderID]; hidden {
			continue
		}
		visible = append(visible, m)
	}

	// 4 的准备：批量取可见投票消息对应的投票定义
	pollViews, err := s.buildPollViews(visible, cursors, viewerID)
	if err != nil {
		return nil, err
	}

	out := make([]MessageViewDTO, 0, len(visible))
	for i := range visible {
		m := &visible[i]
		dto := MessageViewDTO{
			ID:        m.ID,
			RoomID:    m.RoomID,
			SenderID:  m.SenderID,
			Sender:    toSenderDTO(&m.Sender),
			Type:      m.Type,
			Content:   m.Content,
			Extra:     m.Extra,
			CreatedAt: m.CreatedAt,
			ReadCount: readCount(m, cursors),
			Poll:      pollViews[m.ID],
		}
		out = append(out, dto)
	}

	return out, nil
}

// readCount 除发送者外、游标为 NULL 或小于该消息 ID 的成员数。
func readCount(m *models.Message, cursors []repository.MemberCursor) int {
	n := 0
	for _, c := range cursors {
		if c.UserID == m.SenderID {
			continue
		}
		if c.LastReadMsgID == nil || *c.LastReadMsgID < m.ID {
			n++
		}
	}
	return n
}

// buildPollViews 投票附加视图：messageID -> view。
// 匿名投票清空 voters；未投名单按现任成员算（退出的人不算欠票）。
func (s *MessageService) buildPollViews(msgs []models.Message, cursors []repository.MemberCursor, viewerID uint64) (map[uint64]*PollViewDTO, error) {
	msgIDs := make([]uint64, 0)
	for _, m := range msgs {
		if m.Type == models.MessageTypePoll {
			msgIDs = append(msgIDs, m.ID)
		}
	}
	if len(msgIDs) == 0 {
		return map[uint64]*PollViewDTO{}, nil
	}

	var polls []models.Poll
	if err := s.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("message_id IN ?", msgIDs).Find(&polls).Error; err != nil {
		return nil, err
	}

	pollIDs := make([]uint64, len(polls))
	for i, p := range polls {
		pollIDs[i] = p.ID
	}
	votes, err := s.voteDAO.ListByPolls(pollIDs)
	if err != nil {
		return nil, err
	}
	votesByPoll := make(map[uint64][]models.PollVote)
	for _, v := range votes {
		votesByPoll[v.PollID] = append(votesByPoll[v.PollID], v)
	}

	now := time.Now()
	out := make(map[uint64]*PollViewDTO, len(polls))
	for i := range polls {
		p := &polls[i]
		view := &PollViewDTO{
			PollID:    p.ID,
			Title:     p.Title,
			Anonymous: p.Anonymous,
			ClosedAt:  p.ClosedAt,
			Closed:    p.ClosedAt != nil && now.After(*p.ClosedAt),
			NotVoted:  []uint64{},
		}

		votedSet := make(map[uint64]uint64) // userID -> optionID
		for _, v := range votesByPoll[p.ID] {
			votedSet[v.UserID] = v.OptionID
			if v.UserID == viewerID {
				oid := v.OptionID
				view.MyOptionID = &oid
			}
		}

		for _, opt := range p.Options {
			tally := PollOptionTallyDTO{OptionID: opt.ID, Label: opt.Label, Voters: []uint64{}}
			for _, v := range votesByPoll[p.ID] {
				if v.OptionID != opt.ID {
					continue
				}
				tally.Count++
				if !p.Anonymous {
					tally.Voters = append(tally.Voters, v.UserID)
				}
			}
			view.Options = append(view.Options, tally)
		}

		for _, c := range cursors {
			if _, voted := votedSet[c.UserID]; !voted {
				view.NotVoted = append(view.NotVoted, c.UserID)
			}
		}

		out[p.MessageID] = view
	}

	return out, nil
}

// Delete 删除消息：仅发送者本人，硬删。
// 投票载体消息连同投票定义/选项/票同事务删除。
func (s *MessageService) Delete(messageID, requesterID uint64) error {
	return s.deleteOwned(messageID, requesterID, 0)
}

// DeleteNotice 公告的独立删除路径：归属规则相同，但要求目标确实是公告。
func (s *MessageService) DeleteNotice(messageID, requesterID uint64) error {
	return s.deleteOwned(messageID, requesterID, models.MessageTypeNotice)
}

func (s *MessageService) deleteOwned(messageID, requesterID uint64, wantType uint8) error {
	msg, err := s.messageDAO.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if wantType != 0 && msg.Type != wantType {
		return ErrNotFound
	}
	if msg.SenderID != requesterID {
		return ErrNotOwner
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if msg.Type == models.MessageTypePoll {
		var poll models.Poll
		err := tx.Where("message_id = ?", messageID).First(&poll).Error
		if err == nil {
			if err := tx.Where("poll_id = ?", poll.ID).Delete(&models.PollVote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("poll_id = ?", poll.ID).Delete(&models.PollOption{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Poll{}, poll.ID).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	if err := tx.Delete(&models.Message{}, messageID).Error; err != nil {
		return err
	}

	return tx.Commit().Error
}

// GetMessageByID 根据ID获取消息
func (s *MessageService) GetMessageByID(messageID uint64) (*models.Message, error) {
	msg, err := s.messageDAO.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

func toSenderDTO(u *models.User) *SenderDTO {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &SenderDTO{ID: u.ID, Username: u.Username, Nickname: u.Nickname, Avatar: u.Avatar}
}
