package campus_chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/campuslink/campus-chat/response"
	"github.com/campuslink/campus-chat/service"
	"github.com/gin-gonic/gin"
)

// currentUserID 从 gin.Context 取出鉴权中间件写入的 user_id。
func currentUserID(ctx *gin.Context) (uint64, bool) {
	uid, exists := ctx.Get("user_id")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, response.Error(response.CodeTokenInvalid, "user_id not found"))
		return 0, false
	}
	id, ok := uid.(uint64)
	if !ok || id == 0 {
		ctx.JSON(http.StatusUnauthorized, response.Error(response.CodeTokenInvalid, "user_id invalid"))
		return 0, false
	}
	return id, true
}

// paramUint64 解析路径参数为 uint64，失败时直接写参数错误响应。
func paramUint64(ctx *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || v == 0 {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, "invalid "+name))
		return 0, false
	}
	return v, true
}

// writeServiceError 业务错误 -> 业务状态码。未识别的一律内部错误。
// 业务层统一 HTTP 200，靠 code 区分。
func writeServiceError(ctx *gin.Context, err error) {
	var existsErr *service.RoomExistsError
	var banErr *service.BanError

	code := response.CodeInternalError
	switch {
	case errors.As(err, &existsErr):
		code = response.CodeRoomExists
	case errors.As(err, &banErr):
		code = response.CodeChatBanned
	case errors.Is(err, service.ErrValidation):
		code = response.CodeParamError
	case errors.Is(err, service.ErrNotFound):
		code = response.CodeNotFound
	case errors.Is(err, service.ErrNotMember):
		code = response.CodeNotMember
	case errors.Is(err, service.ErrNotOwner):
		code = response.CodeNotOwner
	case errors.Is(err, service.ErrPollClosed):
		code = response.CodePollClosed
	}

	resp := response.Error(code, err.Error())
	if existsErr != nil {
		// 冲突响应里带上既有房间 ID，客户端可以直接跳转
		resp.Data = gin.H{"room_id": existsErr.RoomID}
	}
	if banErr != nil {
		// 禁言响应带结构化字段，客户端据 expires_at 渲染倒计时
		resp.Data = gin.H{
			"permanent":  banErr.Permanent,
			"reason":     banErr.Reason,
			"expires_at": banErr.ExpiresAt,
		}
	}
	ctx.JSON(http.StatusOK, resp)
}
