package leaderboard

import (
	"fmt"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/database"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/user"
	"github.com/redis/go-redis/v9"
)

// WarmupCache 根据SQLite中的用户镜像重建排名Sorted Set。
// 只有完成过至少一局的用户才会上榜，和首局结算时的入榜时机一致。
func WarmupCache() error {
	users, err := user.AllMirrorRecords()
	if err != nil {
		return err
	}

	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, RankingKey)

	count := 0
	for _, u := range users {
		if u.GamesPlayed <= 0 {
			continue
		}
		pipe.ZAdd(database.Ctx, RankingKey, redis.Z{
			Score:  float64(u.Rating),
			Member: u.Username,
		})
		count++
	}

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("重建排行榜失败: %w", err)
	}
	fmt.Printf("成功重建排行榜，共 %d 个上榜用户。\n", count)
	return nil
}
