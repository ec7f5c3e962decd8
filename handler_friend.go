package campus_chat

import (
	"net/http"

	"github.com/campuslink/campus-chat/response"
	"github.com/gin-gonic/gin"
)

// -------------------- 好友 / 屏蔽相关接口 --------------------

// GinHandleAddFriend 添加好友
// @Summary 添加好友
// @Description 双向写入好友关系；任意一方屏蔽另一方时拒绝
// @Tags 好友
// @Accept json
// @Produce json
// @Param friend_id path uint64 true "对方用户ID"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /friends/{friend_id} [post]
func (c *ChatEngine) GinHandleAddFriend(ctx *gin.Context) {
	friendID, ok := paramUint64(ctx, "friend_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.FriendService.AddFriend(uid, friendID); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleRemoveFriend 删除好友
// @Summary 删除好友
// @Description 双向删除好友关系
// @Tags 好友
// @Accept json
// @Produce json
// @Param friend_id path uint64 true "对方用户ID"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /friends/{friend_id} [delete]
func (c *ChatEngine) GinHandleRemoveFriend(ctx *gin.Context) {
	friendID, ok := paramUint64(ctx, "friend_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.FriendService.RemoveFriend(uid, friendID); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleGetFriendList 获取好友列表
// @Summary 获取好友列表
// @Tags 好友
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=[]uint64} "好友用户ID列表"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /friends [get]
func (c *ChatEngine) GinHandleGetFriendList(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	ids, err := c.FriendService.GetFriendList(uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(ids))
}

type SetBlockReq struct {
	Blocked bool `json:"blocked"`
}

// GinHandleSetBlock 屏蔽/取消屏蔽
// @Summary 设置屏蔽关系
// @Description 屏蔽是单向的：屏蔽后对方消息对我不可见；同时解除双方好友关系
// @Tags 好友
// @Accept json
// @Produce json
// @Param user_id path uint64 true "被屏蔽用户ID"
// @Param req body SetBlockReq true "blocked=true 屏蔽，false 解除"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /blocks/{user_id} [post]
func (c *ChatEngine) GinHandleSetBlock(ctx *gin.Context) {
	targetID, ok := paramUint64(ctx, "user_id")
	if !ok {
		return
	}
	var req SetBlockReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.FriendService.SetBlock(uid, targetID, req.Blocked); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}
