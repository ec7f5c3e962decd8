package main

import (
	"log"

	campus_chat "github.com/campuslink/campus-chat"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// 1. 初始化数据库连接
	dsn := "root:password@tcp(127.0.0.1:3306)/portal_db?charset=utf8mb4&parseTime=True&loc=Local"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("数据库连接失败:", err)
	}

	// 2. 初始化 Redis（Token 认证 + 角标缓存）
	rdb := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
	})

	// 3. 初始化 Chat Engine（单例模式，全局只需调用一次）
	engine := campus_chat.NewEngine(
		campus_chat.WithDB(db),
		campus_chat.WithRDB(rdb),
		campus_chat.WithTablePrefix("sl_"), // 自定义表前缀
	)

	// 4. 创建 Gin 路由
	r := gin.Default()

	// 设置 CORS（如果需要）
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// 注册 Swagger UI
	campus_chat.RegisterSwagger(r, "/swagger/*any")

	// 5. API 路由组：统一鉴权后挂全部聊天接口
	api := r.Group("/api/v1")
	api.Use(engine.GinAuthMiddleware(nil))
	engine.RegisterRoutes(api)

	log.Println("listening on :6789")
	if err := r.Run(":6789"); err != nil {
		log.Fatal(err)
	}
}
