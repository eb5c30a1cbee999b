package user

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/database"
)

// crossDayStreakWindow 是跨天连胜的判定窗口：
// 只有当上一次完成距本次完成不超过24小时时，天数连胜才会累加。
const crossDayStreakWindow = 24 * time.Hour

// EnsureUser 保证指定用户在Redis中存在统计记录。
// 首次接触的用户会以初始天梯分建档。
func EnsureUser(ctx context.Context, username string) error {
	exists, err := database.RDB.Exists(ctx, StatKey(username)).Result()
	if err != nil {
		return fmt.Errorf("无法检查用户 %s 的统计记录: %w", username, err)
	}
	if exists > 0 {
		return nil
	}

	pipe := database.RDB.Pipeline()
	pipe.HSet(ctx, StatKey(username), map[string]interface{}{
		FieldRating:           BaselineRating,
		FieldCorrectGuesses:   0,
		FieldIncorrectGuesses: 0,
		FieldGamesPlayed:      0,
		FieldStreak:           0,
		FieldLastPlayDate:     0,
	})
	pipe.SAdd(ctx, DirtySetKey, username)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("无法初始化用户 %s 的统计记录: %w", username, err)
	}
	return nil
}

// GetStats 读取指定用户的统计记录。
// 记录不存在时返回带初始分的零值，而不是报错。
func GetStats(ctx context.Context, username string) (Stats, error) {
	fields, err := database.RDB.HGetAll(ctx, StatKey(username)).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("无法读取用户 %s 的统计记录: %w", username, err)
	}
	return statsFromHash(fields), nil
}

// NextCrossDayStreak 根据上一次完成时刻计算新的跨天连胜值。
// 纯函数，便于直接测试。
func NextCrossDayStreak(prior Stats, completedAt time.Time) int {
	if prior.LastPlayDate <= 0 {
		return 0
	}
	lastPlay := time.UnixMilli(prior.LastPlayDate)
	if completedAt.Sub(lastPlay) <= crossDayStreakWindow {
		return prior.Streak + 1
	}
	return 0
}

// ApplyCompletion 在一局游戏完成后更新用户的累计统计。
// 天梯分被覆盖为新值，猜测计数累加，跨天连胜按NextCrossDayStreak规则重算。
func ApplyCompletion(ctx context.Context, username string, newRating, correct, incorrect int, completedAt time.Time) error {
	prior, err := GetStats(ctx, username)
	if err != nil {
		return err
	}

	pipe := database.RDB.Pipeline()
	pipe.HSet(ctx, StatKey(username), map[string]interface{}{
		FieldRating:           newRating,
		FieldCorrectGuesses:   prior.CorrectGuesses + correct,
		FieldIncorrectGuesses: prior.IncorrectGuesses + incorrect,
		FieldGamesPlayed:      prior.GamesPlayed + 1,
		FieldStreak:           NextCrossDayStreak(prior, completedAt),
		FieldLastPlayDate:     strconv.FormatInt(completedAt.UnixMilli(), 10),
	})
	pipe.SAdd(ctx, DirtySetKey, username)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("无法更新用户 %s 的累计统计: %w", username, err)
	}
	return nil
}
