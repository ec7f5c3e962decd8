// Package campus_chat 提供校园门户的站内消息子系统
// @title Campus Chat API
// @version 1.0
// @description 校园门户消息子系统的 RESTful API 文档，包含房间、消息、投票、好友、通知模块
// @description
// @description ## 业务状态码说明
// @description | Code | 说明 |
// @description |------|------|
// @description | 0 | 成功 |
// @description | 10001 | 参数错误 |
// @description | 10002 | 资源不存在 |
// @description | 10004 | Token 无效 |
// @description | 10005 | 不是房间成员 |
// @description | 10006 | 不是消息发送者 |
// @description | 10007 | 私聊房间已存在 |
// @description | 10008 | 投票已截止 |
// @description | 10009 | 聊天功能被封禁 |
// @description | 99999 | 内部错误 |
// @description
// @description ## HTTP 状态码说明
// @description - **200**: 业务请求成功（根据 response.code 判断业务状态）
// @description - **401**: 认证失败（未登录/Token 无效）
// @description - **500**: 服务器内部错误
// @description
// @description ## 响应格式
// @description 所有接口统一返回格式：
// @description ```json
// @description {
// @description   "code": 0,
// @description   "msg": "success",
// @description   "data": {}
// @description }
// @description ```
//
// @termsOfService https://github.com/campuslink/campus-chat
//
// @contact.name API Support
// @contact.url https://github.com/campuslink/campus-chat/issues
// @contact.email support@example.com
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:6789
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 格式：Bearer <token>
//
// @securityDefinitions.apikey QueryToken
// @in query
// @name token
// @description 用于无法传 header 的场景
package campus_chat
