package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campuslink/campus-chat/cons"
	"github.com/campuslink/campus-chat/models"
	"github.com/campuslink/campus-chat/repository"
)

type RoomService struct {
	*Service
	memberDAO *repository.RoomMemberDAO
	msgDAO    *models.MessageDAO
}

func NewRoomService(s *Service) *RoomService {
	log.Println("NewRoomService")
	return &RoomService{
		Service:   s,
		memberDAO: repository.NewRoomMemberDAO(s.DB),
		msgDAO:    models.NewMessageDAO(s.DB),
	}
}

// CreatePrivateRoom 创建两人私聊房间。
// 去重约束：同一对用户只允许一个私聊房间（room_account 规则 + 唯一索引）。
// 已存在时返回 *RoomExistsError 携带既有房间 ID，而不是静默复用。
func (s *RoomService) CreatePrivateRoom(creatorID, targetID uint64) (*models.Room, error) {
	if creatorID == 0 || targetID == 0 {
		return nil, invalidf("user_id 不能为空")
	}
	if creatorID == targetID {
		return nil, invalidf("不能和自己建私聊")
	}
	if err := s.Bans.Check(creatorID); err != nil {
		return nil, err
	}

	roomAccount := generatePrivateRoomAccount(creatorID, targetID)

	var existing models.Room
	err := s.DB.Where("room_account = ?", roomAccount).First(&existing).Error
	if err == nil {
		return nil, &RoomExistsError{RoomID: existing.ID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.createRoom(models.RoomTypePrivate, "", creatorID, []uint64{targetID}, roomAccount)
}

// CreateGroupRoom 创建群聊房间（随机群号，无去重约束）
func (s *RoomService) CreateGroupRoom(name string, creatorID uint64, memberIDs []uint64) (*models.Room, error) {
	if creatorID == 0 {
		return nil, invalidf("user_id 不能为空")
	}
	if err := s.Bans.Check(creatorID); err != nil {
		return nil, err
	}

	return s.createRoom(models.RoomTypeGroup, name, creatorID, memberIDs, generateGroupRoomAccount())
}

// createRoom 内部创建房间的通用方法：房间 + 成员行同事务。
func (s *RoomService) createRoom(roomType uint8, name string, creatorID uint64, memberIDs []uint64, roomAccount string) (*models.Room, error) {
	now := time.Now()
	room := &models.Room{
		RoomAccount: roomAccount,
		Type:        roomType,
		Name:        name,
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// 去重成员，creator 始终在内
	seen := map[uint64]struct{}{creatorID: {}}
	uniq := []uint64{creatorID}
	for _, uid := range memberIDs {
		if uid == 0 {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		uniq = append(uniq, uid)
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	if err := tx.Create(room).Error; err != nil {
		// 并发建房时双方都可能通过前置查重，输家在唯一索引上撞车。
		// 重查既有房间，照样回冲突错误而不是裸 DB 错。
		if roomType == models.RoomTypePrivate {
			var existing models.Room
			if lookupErr := s.DB.Where("room_account = ?", roomAccount).
				First(&existing).Error; lookupErr == nil {
				return nil, &RoomExistsError{RoomID: existing.ID}
			}
		}
		return nil, err
	}

	for _, uid := range uniq {
		member := &models.RoomMember{
			RoomID:    room.ID,
			UserID:    uid,
			IsOwner:   uid == creatorID,
			JoinedAt:  now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(member).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return room, nil
}

// InviteMembers 拉人进房间。邀请人必须是成员。
// 私聊房间被拉人时随之转为群聊：类型改群、重发群号，原来的两人
// 之后可以再建新的私聊（去重资格随转换释放）。
func (s *RoomService) InviteMembers(roomID, inviterID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return invalidf("待邀请成员不能为空")
	}
	if err := s.Bans.Check(inviterID); err != nil {
		return err
	}

	room, err := s.GetRoomByID(roomID)
	if err != nil {
		return err
	}

	ok, err := s.memberDAO.IsMember(roomID, inviterID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}

	existing, err := s.memberDAO.ListMemberIDs(roomID)
	if err != nil {
		return err
	}
	existingSet := make(map[uint64]struct{}, len(existing))
	for _, uid := range existing {
		existingSet[uid] = struct{}{}
	}

	now := time.Now()
	added := make([]uint64, 0, len(userIDs))

	tx := s.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	// 私聊 -> 群聊转换
	if room.Type == models.RoomTypePrivate {
		if err := tx.Model(&models.Room{}).
			Where("id = ?", roomID).
			Updates(map[string]any{
				"type":         models.RoomTypeGroup,
				"room_account": generateGroupRoomAccount(),
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}
	}

	for _, uid := range userIDs {
		if uid == 0 {
			continue
		}
		if _, ok := existingSet[uid]; ok {
			continue
		}
		existingSet[uid] = struct{}{}
		member := &models.RoomMember{
			RoomID:    roomID,
			UserID:    uid,
			JoinedAt:  now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		added = append(added, uid)
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	if s.Notify != nil && len(added) > 0 {
		members, _ := s.memberDAO.ListMemberIDs(roomID)
		s.Notify.PublishToUsers(members, cons.EventRoomMemberAdded,
			fmt.Sprintf("房间「%s」新增了 %d 位成员", room.Name, len(added)),
			fmt.Sprintf("/chat/room/%d", roomID))
	}

	return nil
}

// Rename 修改房间名。成员均可改；经过禁言闸。
func (s *RoomService) Rename(roomID, requesterID uint64, newName string) error {
	if newName == "" {
		return invalidf("房间名不能为空")
	}
	if err := s.Bans.Check(requesterID); err != nil {
		return err
	}

	ok, err := s.memberDAO.IsMember(roomID, requesterID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}

	res := s.DB.Model(&models.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]any{"name": newName, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	if s.Notify != nil {
		members, _ := s.memberDAO.ListMemberIDs(roomID)
		s.Notify.PublishToUsers(members, cons.EventRoomRenamed,
			fmt.Sprintf("房间改名为「%s」", newName),
			fmt.Sprintf("/chat/room/%d", roomID))
	}

	return nil
}

// Leave 退出房间。被禁言的用户也要能退出，因此不经过禁言闸。
func (s *RoomService) Leave(roomID, userID uint64) error {
	removed, err := s.memberDAO.DeleteMember(roomID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotMember
	}

	if s.Notify != nil {
		members, _ := s.memberDAO.ListMemberIDs(roomID)
		s.Notify.PublishToUsers(members, cons.EventRoomMemberQuit,
			"有成员退出了房间",
			fmt.Sprintf("/chat/room/%d", roomID))
	}

	return nil
}

// Delete 删除房间：房间/成员/消息/投票/选项/票全部硬删，不可恢复。
// 策略：任何成员都可删除（数据层没有强 owner 角色，IsOwner 仅展示用）。
// 与退出一样不经过禁言闸。
func (s *RoomService) Delete(roomID, requesterID uint64) error {
	ok, err := s.memberDAO.IsMember(roomID, requesterID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}

	// 删除前留存名册，事后才有人可通知
	members, err := s.memberDAO.ListMemberIDs(roomID)
	if err != nil {
		return err
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	var pollIDs []uint64
	if err := tx.Model(&models.Poll{}).
		Where("room_id = ?", roomID).
		Pluck("id", &pollIDs).Error; err != nil {
		return err
	}
	if len(pollIDs) > 0 {
		if err := tx.Where("poll_id IN ?", pollIDs).Delete(&models.PollVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id IN ?", pollIDs).Delete(&models.PollOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", pollIDs).Delete(&models.Poll{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("room_id = ?", roomID).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	if err := tx.Where("room_id = ?", roomID).Delete(&models.RoomMember{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Room{}, roomID).Error; err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	if s.Notify != nil {
		s.Notify.PublishToUsers(members, cons.EventRoomDeleted, "房间已被解散", "")
	}

	return nil
}

// GetRoomByID 根据 ID 查询房间
func (s *RoomService) GetRoomByID(roomID uint64) (*models.Room, error) {
	var room models.Room
	err := s.DB.First(&room, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// GetRoomMembers 获取房间成员的用户ID列表
func (s *RoomService) GetRoomMembers(roomID uint64) ([]uint64, error) {
	return s.memberDAO.ListMemberIDs(roomID)
}

// CheckRoomMember 检查用户是否是房间成员
func (s *RoomService) CheckRoomMember(roomID, userID uint64) (bool, error) {
	return s.memberDAO.IsMember(roomID, userID)
}

// RoomDTO 房间列表返回结构
type RoomDTO struct {
	ID          uint64      `json:"id"`
	RoomAccount string      `json:"room_account"`
	Name        string      `json:"name"`
	Type        uint8       `json:"type"`
	LastMessage *MessageDTO `json:"last_message,omitempty"`
	UnreadCount int64       `json:"unread_count"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// GetUserRooms 获取用户参与的所有房间：带最后一条可见消息预览 + 未读数。
// 预览与未读都套用和 list 相同的屏蔽过滤口径。
func (s *RoomService) GetUserRooms(userID uint64) ([]RoomDTO, error) {
	var rooms []models.Room
	roomTable := models.Room{}.TableName()
	memberTable := models.RoomMember{}.TableName()

	// 1. 查询用户所在的房间
	err := s.DB.Model(&models.Room{}).
		Joins(fmt.Sprintf("JOIN %s ON %s.id = %s.room_id", memberTable, roomTable, memberTable)).
		Where(fmt.Sprintf("%s.user_id = ?", memberTable), userID).
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return []RoomDTO{}, nil
	}

	roomIDs := make([]uint64, len(rooms))
	for i, r := range rooms {
		roomIDs[i] = r.ID
	}

	blocked, err := s.Friends.ListBlockedIDs(userID)
	if err != nil {
		return nil, err
	}

	// 2. 每个房间最后一条对 viewer 可见的消息
	lastMsgMap, err := s.msgDAO.LastVisibleByRooms(roomIDs, blocked)
	if err != nil {
		log.Printf("GetUserRooms fetch last messages error: %v", err)
		lastMsgMap = map[uint64]*models.Message{}
	}

	// 3. 未读数（委托已读游标服务，口径一致）
	unreadMap, err := s.ReadReceipt.UnreadCounts(userID, roomIDs)
	if err != nil {
		return nil, err
	}

	// 4. 私聊房间用对方昵称做展示名
	privateRoomIDs := make([]uint64, 0)
	for _, r := range rooms {
		if r.Type == models.RoomTypePrivate {
			privateRoomIDs = append(privateRoomIDs, r.ID)
		}
	}
	otherUserMap := make(map[uint64]models.User) // roomID -> User
	if len(privateRoomIDs) > 0 {
		var members []models.RoomMember
		err = s.DB.Preload("User").
			Where("room_id IN ? AND user_id != ?", privateRoomIDs, userID).
			Find(&members).Error
		if err == nil {
			for _, m := range members {
				otherUserMap[m.RoomID] = m.User
			}
		}
	}

	// 5. 组装 DTO
	dtos := make([]RoomDTO, len(rooms))
	for i, r := range rooms {
		dto := RoomDTO{
			ID:          r.ID,
			RoomAccount: r.RoomAccount,
			Type:        r.Type,
			UnreadCount: unreadMap[r.ID],
			UpdatedAt:   r.UpdatedAt,
		}

		if r.Type == models.RoomTypePrivate {
			if other, ok := otherUserMap[r.ID]; ok {
				dto.Name = other.Nickname
			} else {
				dto.Name = "未知用户" // 对方已退出或数据异常
			}
		} else {
			dto.Name = r.Name
			if dto.Name == "" {
				dto.Name = "群聊"
			}
		}

		if msg, ok := lastMsgMap[r.ID]; ok {
			dto.LastMessage = ToMessageDTO(msg)
		}

		dtos[i] = dto
	}

	return dtos, nil
}

// RoomMemberDTO 成员列表项
type RoomMemberDTO struct {
	UserID   uint64    `json:"user_id"`
	Username string    `json:"username"`
	Nickname string    `json:"nickname"`
	Avatar   string    `json:"avatar"`
	IsOwner  bool      `json:"is_owner"`
	JoinedAt time.Time `json:"joined_at"`
}

// GetRoomMemberList 获取房间成员列表（viewer 必须是成员）
func (s *RoomService) GetRoomMemberList(roomID, viewerID uint64) ([]RoomMemberDTO, error) {
	ok, err := s.memberDAO.IsMember(roomID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	var members []models.RoomMember
	if err := s.DB.Preload("User").
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	out := make([]RoomMemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, RoomMemberDTO{
			UserID:   m.UserID,
			Username: m.User.Username,
			Nickname: m.User.Nickname,
			Avatar:   m.User.Avatar,
			IsOwner:  m.IsOwner,
			JoinedAt: m.JoinedAt,
		})
	}
	return out, nil
}

// generatePrivateRoomAccount 生成私聊房间的固定对外号。
// 同一对用户永远算出同一个号，唯一索引即去重约束。
func generatePrivateRoomAccount(userID1, userID2 uint64) string {
	if userID1 > userID2 {
		userID1, userID2 = userID2, userID1
	}
	return fmt.Sprintf("private_%d_%d", userID1, userID2)
}

// generateGroupRoomAccount 生成群聊对外号（随机，无去重语义）
func generateGroupRoomAccount() string {
	return fmt.Sprintf("group_%s", uuid.New().String()[:8])
}
