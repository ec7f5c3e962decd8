package service

import (
	"errors"
	"fmt"
	"time"
)

// 业务错误口径：全部终态、直接回给调用方，核心层不做自动重试。
// handler 层据此映射到统一响应码。
var (
	ErrNotFound   = errors.New("资源不存在")
	ErrNotMember  = errors.New("不是房间成员")
	ErrNotOwner   = errors.New("只能操作自己发布的内容")
	ErrPollClosed = errors.New("投票已截止")
	ErrValidation = errors.New("参数校验失败")
)

// invalidf 构造带明细的校验错误，仍可被 errors.Is(err, ErrValidation) 命中。
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RoomExistsError 1:1 房间去重冲突：携带已存在的房间 ID，便于客户端直接跳转。
type RoomExistsError struct {
	RoomID uint64
}

func (e *RoomExistsError) Error() string {
	return fmt.Sprintf("私聊房间已存在: room_id=%d", e.RoomID)
}

// BanError 禁言拦截。携带足够信息供客户端渲染倒计时而非笼统报错。
// ExpiresAt 仅临时禁言时有值。
type BanError struct {
	Permanent bool
	Reason    string
	ExpiresAt *time.Time
}

func (e *BanError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("已被永久禁言: %s", e.Reason)
	}
	if e.ExpiresAt != nil {
		return fmt.Sprintf("已被禁言至 %s: %s", e.ExpiresAt.Format("2006-01-02 15:04:05"), e.Reason)
	}
	return fmt.Sprintf("已被禁言: %s", e.Reason)
}
