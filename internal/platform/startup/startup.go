package startup

import (
	"context"
	"fmt"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/leaderboard"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/backup"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/user"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := user.PrimeCachedDB(); err != nil {
		return err
	}
	if err := leaderboard.WarmupCache(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 是一个专门用于在运行时热重建Redis缓存的函数。
// Redis重启后其中的会话与每日锁已全部丢失，可恢复的只有
// SQLite镜像中的用户统计与天梯。
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")

	if err := user.WarmupCache(); err != nil {
		return err
	}
	if err := leaderboard.WarmupCache(); err != nil {
		return err
	}

	// 触发一次新的快照
	fmt.Println("缓存热重建完成，正在触发一次新的数据快照...")
	if err := backup.CreateConsistentSnapshotInDB(context.Background()); err != nil {
		fmt.Printf("警告: 缓存热重建后的快照创建失败: %v\n", err)
	}

	return nil
}
