package user

import (
	"fmt"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/database"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("无法迁移user表: %w", err)
	}
	fmt.Println("User数据库表迁移成功。")
	return nil
}

// MirrorRecord 将一个用户的Redis统计哈希转换为SQLite镜像记录。
// 备份调度器落盘时使用。
func MirrorRecord(username string, fields map[string]string) User {
	stats := statsFromHash(fields)
	return User{
		Username:         username,
		Rating:           stats.Rating,
		CorrectGuesses:   stats.CorrectGuesses,
		IncorrectGuesses: stats.IncorrectGuesses,
		GamesPlayed:      stats.GamesPlayed,
		Streak:           stats.Streak,
		LastPlayDate:     stats.LastPlayDate,
	}
}

// AllMirrorRecords 从SQLite读取全部用户镜像记录。
// 供本模块和leaderboard模块在缓存重建时使用。
func AllMirrorRecords() ([]User, error) {
	var users []User
	if err := database.DB.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("无法从SQLite读取用户镜像: %w", err)
	}
	return users, nil
}

// WarmupCache 将SQLite中的用户镜像预热到Redis的统计Hash中。
// 注意：此函数不清理游离的user:stat键，Redis重启后的全量重建
// 天然满足这一点。
func WarmupCache() error {
	users, err := AllMirrorRecords()
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Println("无现有用户数据，无需预热用户缓存。")
		return nil
	}

	pipe := database.RDB.Pipeline()
	for _, u := range users {
		pipe.HSet(database.Ctx, StatKey(u.Username), map[string]interface{}{
			FieldRating:           u.Rating,
			FieldCorrectGuesses:   u.CorrectGuesses,
			FieldIncorrectGuesses: u.IncorrectGuesses,
			FieldGamesPlayed:      u.GamesPlayed,
			FieldStreak:           u.Streak,
			FieldLastPlayDate:     u.LastPlayDate,
		})
	}
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热用户统计到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个用户统计到Redis。\n", len(users))
	return nil
}

// PrimeCachedDB 是user模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
