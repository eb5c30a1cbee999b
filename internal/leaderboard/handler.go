package leaderboard

import (
	"net/http"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/database"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// leaderboardPageSize 是排行榜接口单次返回的最大行数
const leaderboardPageSize = 1000

// GetLeaderboard 处理 GET /api/leaderboard
// 返回按天梯分从高到低排序的前1000名。
func GetLeaderboard(c *gin.Context) {
	entries, err := GetTopN(database.Ctx, leaderboardPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "无法读取排行榜: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

// GetMyStat 处理 GET /api/leaderboard/me
// 返回当前用户的名次与累计统计。
func GetMyStat(c *gin.Context) {
	username := user.CurrentUsername(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "用户未认证"})
		return
	}

	stat, err := GetUserStat(database.Ctx, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "无法读取用户统计: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stat})
}
