package game

import (
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/content"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/leaderboard"
	"github.com/SlpAus/reddit-higher-lower-backend/pkg/token"
)

// globalService 是handler层使用的状态机实例
var globalService *Service

// ConfigureModule 组装game模块：内容来源、会话存储与天梯结算回调。
func ConfigureModule(source content.Source) {
	token.GenerateSecretKey()
	globalService = NewService(NewRedisStore(), NewSupplier(source), leaderboard.FinalizeDay, time.Now)
}
