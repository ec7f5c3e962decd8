package campus_chat

import (
	"net/http"
	"time"

	"github.com/campuslink/campus-chat/response"
	"github.com/gin-gonic/gin"
)

// -------------------- 投票（Poll）相关接口 --------------------

type CreatePollReq struct {
	Title     string     `json:"title" binding:"required"`
	Options   []string   `json:"options" binding:"required"`
	Anonymous bool       `json:"anonymous"`
	ClosedAt  *time.Time `json:"closed_at"`
}

// GinHandleCreatePoll 创建投票
// @Summary 创建投票
// @Description 在房间里发一条投票消息，至少两个选项，可设匿名与截止时间
// @Tags 投票
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Param req body CreatePollReq true "投票定义"
// @Success 200 {object} response.Response "投票消息"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/polls [post]
func (c *ChatEngine) GinHandleCreatePoll(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	var req CreatePollReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	msg, poll, err := c.PollService.Create(roomID, uid, req.Title, req.Options, req.Anonymous, req.ClosedAt)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(gin.H{
		"message": msg,
		"poll":    poll,
	}))
}

type VotePollReq struct {
	OptionID uint64 `json:"option_id" binding:"required"`
}

// GinHandleVotePoll 投票/改票/撤票
// @Summary 对投票表态
// @Description 首次为投出一票；重复点同一选项撤票；点不同选项改票。截止后拒绝
// @Tags 投票
// @Accept json
// @Produce json
// @Param message_id path uint64 true "投票消息ID"
// @Param req body VotePollReq true "选项"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /polls/{message_id}/vote [post]
func (c *ChatEngine) GinHandleVotePoll(ctx *gin.Context) {
	messageID, ok := paramUint64(ctx, "message_id")
	if !ok {
		return
	}
	var req VotePollReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.PollService.Vote(messageID, uid, req.OptionID); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleGetPoll 获取投票详情
// @Summary 获取投票详情
// @Description 按投票消息 ID 返回投票定义与选项
// @Tags 投票
// @Accept json
// @Produce json
// @Param message_id path uint64 true "投票消息ID"
// @Success 200 {object} response.Response "投票定义"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /polls/{message_id} [get]
func (c *ChatEngine) GinHandleGetPoll(ctx *gin.Context) {
	messageID, ok := paramUint64(ctx, "message_id")
	if !ok {
		return
	}
	if _, ok := currentUserID(ctx); !ok {
		return
	}

	poll, err := c.PollService.GetPollByMessageID(messageID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(poll))
}
