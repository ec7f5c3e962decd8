package campus_chat

import (
	"net/http"
	"strconv"

	"github.com/campuslink/campus-chat/response"
	"github.com/campuslink/campus-chat/service"
	"github.com/gin-gonic/gin"
)

var _ = service.NotificationDTO{}

// -------------------- 通知 / 未读相关接口 --------------------

// GinHandleListNotifications 拉取通知流
// @Summary 拉取通知
// @Description 按 ID 倒序分页；cursor 传上一页最后一条的 ID，0 表示最新页
// @Tags 通知
// @Accept json
// @Produce json
// @Param cursor query uint64 false "分页游标"
// @Param limit query int false "每页条数，默认 50"
// @Param unread_only query bool false "只看未读"
// @Success 200 {object} response.Response{data=[]service.NotificationDTO} "通知列表"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /notifications [get]
func (c *ChatEngine) GinHandleListNotifications(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	cursor, _ := strconv.ParseUint(ctx.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	unreadOnly := ctx.Query("unread_only") == "true"

	items, next, err := c.NotificationService.List(uid, cursor, limit, unreadOnly)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(gin.H{
		"items":       items,
		"next_cursor": next,
	}))
}

type MarkNotificationsReadReq struct {
	IDs []uint64 `json:"ids" binding:"required"`
}

// GinHandleMarkNotificationsRead 批量标记通知已读
// @Summary 标记通知已读
// @Tags 通知
// @Accept json
// @Produce json
// @Param req body MarkNotificationsReadReq true "通知ID列表"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /notifications/read [post]
func (c *ChatEngine) GinHandleMarkNotificationsRead(ctx *gin.Context) {
	var req MarkNotificationsReadReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.NotificationService.MarkReadByIDs(uid, req.IDs); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleDeleteNotification 删除单条通知
// @Summary 删除通知
// @Tags 通知
// @Accept json
// @Produce json
// @Param notification_id path uint64 true "通知ID"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /notifications/{notification_id} [delete]
func (c *ChatEngine) GinHandleDeleteNotification(ctx *gin.Context) {
	id, ok := paramUint64(ctx, "notification_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.NotificationService.DeleteByID(uid, id); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleUnreadSummary 跨房间未读摘要
// @Summary 未读摘要
// @Description 只列未读数大于 0 的房间，附每房间最后一条可见消息预览与总未读数
// @Tags 通知
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=service.UnreadSummaryDTO} "未读摘要"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /unread/summary [get]
func (c *ChatEngine) GinHandleUnreadSummary(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	summary, err := c.ReadReceiptService.UnreadSummaryAcrossRooms(uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(summary))
}

// GinHandleUnreadBadge 聚合角标
// @Summary 聚合角标
// @Description 聊天未读 + 通知未读的合并角标，聊天总数走 Redis 短缓存
// @Tags 通知
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=service.UnreadBadgeDTO} "角标"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /unread/badge [get]
func (c *ChatEngine) GinHandleUnreadBadge(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	badge, err := c.NotificationService.GetUnreadSummary(uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(badge))
}
