package service

import (
	"context"
	"errors"

	"github.com/campuslink/campus-chat/models"
	"gorm.io/gorm"
)

// AuthService 请求方身份识别。账号体系在门户侧，这里只负责
// token -> 用户 的解析与本地用户投影的按需建档。
type AuthService struct {
	Service
	Tokens *TokenService
}

func NewAuthService(s *Service) *AuthService {
	return &AuthService{Service: *s, Tokens: NewTokenService(s.RDB)}
}

// Authenticate 校验 token 并返回对应的本地用户。
// 本地无投影记录时视为未授权（门户应先调用 EnsureUser 同步）。
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	uid, err := s.Tokens.GetUserIDByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.DB.First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EnsureUser 门户侧同步用户投影：存在则更新昵称头像，不存在则建档。
// username 为门户侧学号/账号，建档后不再改。聊天子系统的所有外键都指向这份投影。
func (s *AuthService) EnsureUser(userID uint64, username, nickname, avatar string) (*models.User, error) {
	if userID == 0 {
		return nil, invalidf("用户 ID 不能为空")
	}
	if username == "" {
		return nil, invalidf("username 不能为空")
	}

	var user models.User
	err := s.DB.First(&user, userID).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{}
		if nickname != "" && nickname != user.Nickname {
			updates["nickname"] = nickname
		}
		if avatar != "" && avatar != user.Avatar {
			updates["avatar"] = avatar
		}
		if len(updates) > 0 {
			if err := s.DB.Model(&user).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{ID: userID, Username: username, Nickname: nickname, Avatar: avatar}
		if err := s.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	default:
		return nil, err
	}
}

// IssueSession 为门户侧登录成功的用户签发聊天会话 token。
func (s *AuthService) IssueSession(ctx context.Context, userID uint64) (string, error) {
	if userID == 0 {
		return "", invalidf("用户 ID 不能为空")
	}
	token, err := s.Tokens.GenerateToken()
	if err != nil {
		return "", err
	}
	if err := s.Tokens.StoreToken(ctx, token, userID, defaultTokenTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Logout 注销当前 token。
func (s *AuthService) Logout(ctx context.Context, userID uint64, token string) error {
	if err := s.Tokens.RevokeToken(ctx, token); err != nil {
		return err
	}
	return s.Tokens.RemoveUserToken(ctx, userID, token)
}
