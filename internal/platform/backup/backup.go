package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/database"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/user"
	"github.com/SlpAus/reddit-higher-lower-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const backupInterval = 10 * time.Minute // 定时备份频率

var backupMutex sync.Mutex // 避免意外竞态

// StartBackupScheduler 启动一个后台Goroutine来定期执行数据库备份
// 它接收一个lifecycle.Handle来管理其生命周期
func StartBackupScheduler(handle *lifecycle.Handle) {
	defer handle.Close() // 确保在退出时通知管理器
	fmt.Println("用户数据备份调度器已启动。")

	for {
		// 使用可中断的休眠来代替ticker。
		// 这使得整个循环可以在收到停机信号时立刻从休眠中唤醒并退出。
		if err := handle.Sleep(backupInterval); err != nil {
			fmt.Printf("备份调度器: 休眠被中断，正在关闭...\n")
			return
		}

		if !database.IsRedisHealthy() {
			fmt.Println("备份调度器: 检测到Redis不可用，跳过本次备份。")
			continue
		}

		fmt.Println("备份调度器: 正在执行定时备份...")
		if err := CreateConsistentSnapshotInDB(handle.Ctx()); err != nil {
			// 如果错误是由于停机信号导致的，则静默退出
			if err != context.Canceled && err != context.DeadlineExceeded {
				fmt.Printf("备份调度器错误: 执行快照备份失败: %v\n", err)
			}
		} else {
			fmt.Println("备份调度器: 快照备份成功。")
		}
	}
}

// CreateConsistentSnapshotInDB 把自上次快照以来变脏的用户统计落盘到SQLite。
// dirty集合在快照事务里被整体转移到processing集合，
// 落盘失败时并回，保证脏标记不丢失。
func CreateConsistentSnapshotInDB(ctx context.Context) (err error) {
	backupMutex.Lock()
	defer backupMutex.Unlock()

	dirtyUsernames, transferred, err := claimDirtySet(ctx)
	if transferred {
		defer func() {
			if err != nil {
				pipe := database.RDB.TxPipeline()
				pipe.SUnionStore(database.Ctx, user.DirtySetKey, user.DirtySetKey, user.ProcessingDirtySetKey)
				pipe.Del(database.Ctx, user.ProcessingDirtySetKey)
				pipe.Exec(database.Ctx)
			} else {
				database.RDB.Del(database.Ctx, user.ProcessingDirtySetKey)
			}
		}()
	}
	if err != nil {
		return err
	}
	if len(dirtyUsernames) == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// 2. 批量读取脏用户的统计哈希
	pipe := database.RDB.Pipeline()
	statCmds := make([]*redis.MapStringStringCmd, len(dirtyUsernames))
	for i, username := range dirtyUsernames {
		statCmds[i] = pipe.HGetAll(database.Ctx, user.StatKey(username))
	}
	if _, err = pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("无法从Redis批量读取用户统计: %w", err)
	}

	usersToUpsert := make([]user.User, 0, len(dirtyUsernames))
	for i, username := range dirtyUsernames {
		fields, cmdErr := statCmds[i].Result()
		if cmdErr != nil {
			err = fmt.Errorf("读取用户 %s 的统计数据失败: %w", username, cmdErr)
			return err
		}
		if len(fields) == 0 {
			// 统计哈希已不存在（例如缓存被清空），跳过而不是写入零值
			continue
		}
		usersToUpsert = append(usersToUpsert, user.MirrorRecord(username, fields))
	}
	if len(usersToUpsert) == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// 3. 将快照数据持久化到SQLite
	const maxRetry = 3
	const delay = 50 * time.Millisecond
	for i := 0; i < maxRetry; i++ {
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// 使用 OnConflict 执行 UPSERT 操作
			// 如果username已存在，则更新统计字段和updated_at；否则，插入新行。
			upsertErr := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "username"}},
				DoUpdates: clause.AssignmentColumns([]string{"rating", "correct_guesses", "incorrect_guesses", "games_played", "streak", "last_play_date", "updated_at"}),
			}).Create(&usersToUpsert).Error
			if upsertErr != nil {
				return fmt.Errorf("持久化用户数据失败: %w", upsertErr)
			}
			return nil
		})

		if err == nil || !database.IsRetryableError(err) {
			break
		}
		time.Sleep(delay)
	}
	return err
}

// claimDirtySet 原子地取走dirty集合的成员并把集合改名为processing。
// 返回值transferred表示改名是否已发生，决定调用方是否需要善后。
func claimDirtySet(ctx context.Context) ([]string, bool, error) {
	dirtySetExists, err := database.RDB.Exists(ctx, user.DirtySetKey).Result()
	if err != nil {
		return nil, false, fmt.Errorf("无法检查Redis中 DirtySetKey 是否存在: %w", err)
	}
	if dirtySetExists == 0 {
		return nil, false, nil
	}

	pipe := database.RDB.TxPipeline()
	dirtyCmd := pipe.SMembers(database.Ctx, user.DirtySetKey)
	pipe.Rename(database.Ctx, user.DirtySetKey, user.ProcessingDirtySetKey)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return nil, false, fmt.Errorf("无法从Redis原子地取走脏用户集合: %w", err)
	}

	dirtyUsernames, err := dirtyCmd.Result()
	if err != nil {
		return nil, true, fmt.Errorf("获取脏用户列表失败: %w", err)
	}
	return dirtyUsernames, true, nil
}
