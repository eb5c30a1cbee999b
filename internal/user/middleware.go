package user

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// IdentityHeader 是宿主平台网关注入的用户名请求头
	IdentityHeader = "X-Platform-User"

	// 调试模式下的访客Cookie，方便在没有网关的本地环境试玩
	guestCookieName   = "guest-id"
	guestCookieMaxAge = 365 * 24 * 60 * 60

	// UsernameKey 是用户名在Gin上下文中的键
	UsernameKey = "username"
)

// LoadUserMiddleware 从宿主平台注入的请求头中读取用户名，
// 并将其放入Gin上下文。身份缺失不在这里拦截，
// 由需要身份的业务操作以NotAuthenticated拒绝。
func LoadUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(UsernameKey, c.GetHeader(IdentityHeader))
		c.Next()
	}
}

// EnsureGuestMiddleware 在调试模式下为没有平台身份的请求分发一个访客身份。
// 生产环境中身份始终来自宿主平台，不应挂载本中间件。
func EnsureGuestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(IdentityHeader) != "" {
			c.Next()
			return
		}

		guestID, err := c.Cookie(guestCookieName)
		if err != nil || guestID == "" {
			newUUID, err := uuid.NewV7()
			if err != nil {
				fmt.Printf("创建访客ID时发生错误: %v\n", err)
				c.Next()
				return
			}
			guestID = "guest-" + newUUID.String()
			c.SetCookie(guestCookieName, guestID, guestCookieMaxAge, "/", "", false, true)
		}
		c.Set(UsernameKey, guestID)
		c.Next()
	}
}

// CurrentUsername 从Gin上下文中取出用户名。
// 返回空字符串表示请求没有可用身份。
func CurrentUsername(c *gin.Context) string {
	return c.GetString(UsernameKey)
}
