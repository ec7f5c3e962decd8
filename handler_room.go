package campus_chat

import (
	"net/http"

	model "github.com/campuslink/campus-chat/models"
	"github.com/campuslink/campus-chat/service"

	"github.com/campuslink/campus-chat/response"
	"github.com/gin-gonic/gin"
)

var _ = model.Room{}
var _ = service.RoomDTO{}

// -------------------- 房间（Room）相关接口 --------------------

type CreatePrivateRoomReq struct {
	TargetID uint64 `json:"target_id" binding:"required"`
}

// GinHandleCreatePrivateRoom 创建私聊房间
// @Summary 创建私聊
// @Description 创建两人私聊房间；该对用户已有私聊时返回冲突码和既有房间 ID
// @Tags 房间
// @Accept json
// @Produce json
// @Param req body CreatePrivateRoomReq true "创建参数"
// @Success 200 {object} response.Response{data=model.Room} "房间信息"
// @Failure 400 {object} response.Response "请求错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/private [post]
func (c *ChatEngine) GinHandleCreatePrivateRoom(ctx *gin.Context) {
	var req CreatePrivateRoomReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	room, err := c.RoomService.CreatePrivateRoom(uid, req.TargetID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(room))
}

type CreateGroupRoomReq struct {
	Name    string   `json:"name" binding:"required"`
	Members []uint64 `json:"members" binding:"required"`
}

// GinHandleCreateGroupRoom 创建群聊房间
// @Summary 创建群聊
// @Description 创建新的群聊房间，创建者自动成为房主
// @Tags 房间
// @Accept json
// @Produce json
// @Param req body CreateGroupRoomReq true "创建参数"
// @Success 200 {object} response.Response{data=model.Room} "房间信息"
// @Failure 400 {object} response.Response "请求错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/group [post]
func (c *ChatEngine) GinHandleCreateGroupRoom(ctx *gin.Context) {
	var req CreateGroupRoomReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	room, err := c.RoomService.CreateGroupRoom(req.Name, uid, req.Members)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(room))
}

// GinHandleGetUserRooms 获取用户参与的房间列表
// @Summary 获取用户房间列表
// @Description 获取当前用户参与的所有房间，含最后一条可见消息与未读数
// @Tags 房间
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=[]service.RoomDTO} "房间列表"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms [get]
func (c *ChatEngine) GinHandleGetUserRooms(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	rooms, err := c.RoomService.GetUserRooms(uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(rooms))
}

// GinHandleGetRoomMembers 获取房间成员列表
// @Summary 获取房间成员
// @Description 当前用户必须是房间成员
// @Tags 房间
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Success 200 {object} response.Response{data=[]service.RoomMemberDTO} "成员列表"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/members [get]
func (c *ChatEngine) GinHandleGetRoomMembers(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	members, err := c.RoomService.GetRoomMemberList(roomID, uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(members))
}

type InviteMembersReq struct {
	Members []uint64 `json:"members" binding:"required"`
}

// GinHandleInviteMembers 邀请成员入房
// @Summary 邀请成员
// @Description 邀请用户加入房间；私聊房间拉人会自动转群
// @Tags 房间
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Param req body InviteMembersReq true "被邀请用户ID列表"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/invite [post]
func (c *ChatEngine) GinHandleInviteMembers(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	var req InviteMembersReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.RoomService.InviteMembers(roomID, uid, req.Members); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

type RenameRoomReq struct {
	Name string `json:"name" binding:"required"`
}

// GinHandleRenameRoom 重命名房间
// @Summary 重命名房间
// @Tags 房间
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Param req body RenameRoomReq true "新名称"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/rename [post]
func (c *ChatEngine) GinHandleRenameRoom(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	var req RenameRoomReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.RoomService.Rename(roomID, uid, req.Name); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleLeaveRoom 退出房间
// @Summary 退出房间
// @Description 退出后房间消息对该用户不再可见；被封禁用户也可以退出
// @Tags 房间
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id}/leave [post]
func (c *ChatEngine) GinHandleLeaveRoom(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.RoomService.Leave(roomID, uid); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleDeleteRoom 删除房间
// @Summary 删除房间
// @Description 级联删除房间内全部消息、投票与成员关系
// @Tags 房间
// @Accept json
// @Produce json
// @Param room_id path uint64 true "房间ID"
// @Success 200 {object} response.Response "成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "服务器错误"
// @Security BearerAuth
// @Router /rooms/{room_id} [delete]
func (c *ChatEngine) GinHandleDeleteRoom(ctx *gin.Context) {
	roomID, ok := paramUint64(ctx, "room_id")
	if !ok {
		return
	}
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.RoomService.Delete(roomID, uid); err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(nil))
}
