package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/database"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/user"
	"github.com/redis/go-redis/v9"
)

// --- Service-Level DTOs ---

// Entry 是排行榜的一行：用户名和天梯分。
type Entry struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// UserStatDTO 把天梯名次与用户累计统计合并成一个读模型。
type UserStatDTO struct {
	Username         string `json:"username"`
	Rank             int64  `json:"rank"`
	Score            int    `json:"score"`
	Rating           int    `json:"rating"`
	CorrectGuesses   int    `json:"correctGuesses"`
	IncorrectGuesses int    `json:"incorrectGuesses"`
	Streak           int    `json:"streak"`
	GamesPlayed      int    `json:"gamesPlayed"`
}

// --- Service Functions ---

// UpsertRating 把用户的天梯分写入排名表。
// Sorted Set天然保证每个用户名只有一条记录，重复写入是幂等的。
func UpsertRating(ctx context.Context, username string, rating int) error {
	err := database.RDB.ZAdd(ctx, RankingKey, redis.Z{
		Score:  float64(rating),
		Member: username,
	}).Err()
	if err != nil {
		return fmt.Errorf("无法写入天梯分: %w", err)
	}
	return nil
}

// GetRank 返回用户从榜首数起的名次（0为最佳）。
// 尚未上榜的用户按0处理，不报错。
func GetRank(ctx context.Context, username string) (int64, error) {
	rank, err := database.RDB.ZRevRank(ctx, RankingKey, username).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("无法获取用户名次: %w", err)
	}
	return rank, nil
}

// GetTopN 返回按分数从高到低的前n名。
func GetTopN(ctx context.Context, n int64) ([]Entry, error) {
	zs, err := database.RDB.ZRevRangeWithScores(ctx, RankingKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("无法读取排行榜: %w", err)
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		entries = append(entries, Entry{Member: member, Score: z.Score})
	}
	return entries, nil
}

// GetUserStat 合并名次与累计统计。
// 统计记录缺失的字段回退为零值/初始分，而不是报错。
func GetUserStat(ctx context.Context, username string) (*UserStatDTO, error) {
	stats, err := user.GetStats(ctx, username)
	if err != nil {
		return nil, err
	}
	rank, err := GetRank(ctx, username)
	if err != nil {
		return nil, err
	}

	return &UserStatDTO{
		Username:         username,
		Rank:             rank,
		Score:            stats.Rating,
		Rating:           stats.Rating,
		CorrectGuesses:   stats.CorrectGuesses,
		IncorrectGuesses: stats.IncorrectGuesses,
		Streak:           stats.Streak,
		GamesPlayed:      stats.GamesPlayed,
	}, nil
}

// FinalizeDay 在一局游戏完成时结算天梯。
// 它读取用户当前分，按纯函数Adjust计算新分，写入排名表并更新累计统计，
// 最后返回结算后的名次和新分。
func FinalizeDay(ctx context.Context, username string, maxStreak, correct, incorrect int, completedAt time.Time) (int64, int, error) {
	if err := user.EnsureUser(ctx, username); err != nil {
		return 0, 0, err
	}
	prior, err := user.GetStats(ctx, username)
	if err != nil {
		return 0, 0, err
	}

	newRating := Adjust(prior.Rating, maxStreak, correct, incorrect)

	if err := UpsertRating(ctx, username, newRating); err != nil {
		return 0, 0, err
	}
	if err := user.ApplyCompletion(ctx, username, newRating, correct, incorrect, completedAt); err != nil {
		return 0, 0, err
	}

	rank, err := GetRank(ctx, username)
	if err != nil {
		return 0, 0, err
	}
	return rank, newRating, nil
}
