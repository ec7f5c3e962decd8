package campus_chat

import (
	"net/http"

	"github.com/campuslink/campus-chat/message"
	model "github.com/campuslink/campus-chat/models"
	"github.com/campuslink/campus-chat/response"
	"github.com/campuslink/campus-chat/service"
	"github.com/gin-gonic/gin"
)

var _ = model.Message{}
var _ = service.MessageViewDTO{}

// -------------------- 消息（Message）相关接口 --------------------

type SendMessageReq struct {
	Kind     string `json:"kind" binding:"required"` // text / image / file / url / notice
	Content  string `json:"content"`
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
}

// payload 按 kind 组装类型化载荷。poll 不走这里（用投票接口）。
func (r SendMessageReq) payload() (message.Payload, error) {
	kind, err := message.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case message.KindText:
		return message.Text{Content: r.Content}, nil
	case message.KindImage:
		return message.Image{URL: r.FileURL, Name: r.FileName}, nil
	case message.KindFile:
		return message.File{URL: r.FileURL, Name: r.FileName}, nil
	case message.KindURL:
		return message.URL{Content: r.Content}, nil
	case message.KindNotice:
		return message.Notice{Content: r.Content}, nil
	default:
		return nil, service.ErrValidation
	}
}

// GinHandleSendMessage 发送消息
// @Summary 发送消息
// @Description 向房间发送文本/图片/文件/链接/公告消息。投票消息请走投票创建接口
// @Tags 消息
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Param req body SendMessageReq true "消息内容"
// @Success 200 {object} response.Response{data=model.Message} "消息"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/messages [post]
func (c *ChatEngine) GinHandleSendMessage(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	var req SendMessageReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	p, err := req.payload()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	msg, err := c.MsgService.Send(roomID, uid, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(msg))
}

// GinHandleListMessages 拉取房间消息
// @Summary 拉取房间消息
// @Description 返回按时间升序的完整消息流，屏蔽发送者的消息已被过滤；投票消息附带实时计票
// @Tags 消息
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Success 200 {object} response.Response{data=[]service.MessageViewDTO} "消息列表"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/messages [get]
func (c *ChatEngine) GinHandleListMessages(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	msgs, err := c.MsgService.ListRoomMessages(roomID, uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(msgs))
}

// GinHandleUploadAttachment 上传附件并发送
// @Summary 上传附件
// @Description multipart 上传文件到对象存储，并自动在房间里发出一条图片/文件消息
// @Tags 消息
// @Accept multipart/form-data
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Param kind formData string true "image 或 file"
// @Param file formData file true "文件"
// @Success 200 {object} response.Response{data=model.Message} "消息"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/upload [post]
func (c *ChatEngine) GinHandleUploadAttachment(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if c.config.Storage == nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeParamError, "对象存储未配置，无法上传"))
		return
	}

	kindStr := ctx.PostForm("kind")
	if kindStr != "image" && kindStr != "file" {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, "kind 必须是 image 或 file"))
		return
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, "缺少上传文件"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeInternalError, err.Error()))
		return
	}
	defer f.Close()

	url, displayName, err := c.config.Storage.Put(ctx.Request.Context(), fh.Filename, f, fh.Size)
	if err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeInternalError, "上传失败: "+err.Error()))
		return
	}

	var p message.Payload
	if kindStr == "image" {
		p = message.Image{URL: url, Name: displayName}
	} else {
		p = message.File{URL: url, Name: displayName}
	}

	msg, err := c.MsgService.Send(roomID, uid, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(msg))
}

type MarkReadReq struct {
	UptoMessageID uint64 `json:"upto_message_id" binding:"required"`
}

// GinHandleMarkRead 上报已读位置
// @Summary 标记已读
// @Description 把已读游标推进到指定消息；游标只前进不后退，旧上报静默忽略
// @Tags 消息
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Param req body MarkReadReq true "已读到的消息ID"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/read [post]
func (c *ChatEngine) GinHandleMarkRead(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	var req MarkReadReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.ReadReceiptService.MarkRead(roomID, uid, req.UptoMessageID); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleDeleteMessage 删除消息
// @Summary 删除消息
// @Description 仅发送者本人可删；投票消息会连同投票定义、选项和票一起删除
// @Tags 消息
// @Accept json
// @Produce json
// @Param message_id path uint64 true "消息ID"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /messages/{message_id} [delete]
func (c *ChatEngine) GinHandleDeleteMessage(ctx *gin.Context) {
	messageID, ok := paramUint64(ctx, "message_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.MsgService.Delete(messageID, uid); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleDeleteNotice 删除公告
// @Summary 删除公告
// @Description 公告的单独删除入口，仅发布者本人可删
// @Tags 消息
// @Accept json
// @Produce json
// @Param message_id path uint64 true "公告消息ID"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /notices/{message_id} [delete]
func (c *ChatEngine) GinHandleDeleteNotice(ctx *gin.Context) {
	messageID, ok := paramUint64(ctx, "message_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.MsgService.DeleteNotice(messageID, uid); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}
