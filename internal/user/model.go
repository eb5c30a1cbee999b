package user

import (
	"time"

	"gorm.io/gorm"
)

// User 定义了用户统计数据在SQLite数据库中的持久化镜像。
// Redis中的user:stat哈希是运行时的权威数据，这张表只作为
// Redis重启后重建缓存的快照来源。
type User struct {
	// Username 是用户的主键，由宿主平台提供
	Username string `gorm:"primarykey;type:varchar(64)"`

	// Rating 是用户当前的天梯分
	Rating int

	// CorrectGuesses / IncorrectGuesses 是跨场次的累计猜测数
	CorrectGuesses   int
	IncorrectGuesses int

	// GamesPlayed 是已完成场次的累计数
	GamesPlayed int

	// Streak 是跨天连续游玩的天数（区别于局内连对）
	Streak int

	// LastPlayDate 是最近一次完成游戏的时刻（毫秒时间戳）
	LastPlayDate int64

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
