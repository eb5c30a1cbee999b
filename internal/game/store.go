package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// Store 是会话存储适配器：把状态机的抽象操作映射到
// 键值存储的原语（Hash字段、带TTL的String）上。
// 状态机只依赖这个接口，测试中用内存实现替换。
type Store interface {
	// GetSession 读取用户的会话；不存在时返回 (nil, nil)
	GetSession(ctx context.Context, username string) (*Session, error)
	CreateSession(ctx context.Context, username string, s *Session) error
	DeleteSession(ctx context.Context, username string) error

	// ApplyGuess 按猜测结果原子地推进会话计数器，并返回推进后的会话。
	// 计数器先落库再读回，崩溃后可从存储中的计数幂等恢复。
	ApplyGuess(ctx context.Context, username string, correct bool) (*Session, error)

	// 待猜回合答案；GetPendingAnswer 在无活动回合时返回 ""
	GetPendingAnswer(ctx context.Context, username string) (string, error)
	SetPendingAnswer(ctx context.Context, username, itemID string) error
	DeletePendingAnswer(ctx context.Context, username string) error

	// 每日完成锁；HasDailyLock 检查指定UTC日的锁是否存在
	HasDailyLock(ctx context.Context, username, day string) (bool, error)
	SetDailyLock(ctx context.Context, username, day string, ttl time.Duration) error

	// 旧版单时间戳锁；GetLegacyLock 在键缺失时返回 (0, false, nil)
	GetLegacyLock(ctx context.Context, username string) (int64, bool, error)
	DeleteLegacyLock(ctx context.Context, username string) error
}

// redisStore 是Store的Redis实现，使用全局的database.RDB。
type redisStore struct{}

// NewRedisStore 返回基于全局Redis客户端的会话存储。
func NewRedisStore() Store {
	return &redisStore{}
}

// GetSession 读取并解析会话Hash。
func (r *redisStore) GetSession(ctx context.Context, username string) (*Session, error) {
	fields, err := database.RDB.HGetAll(ctx, sessionKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("无法读取会话: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return sessionFromHash(fields)
}

// CreateSession 把新会话整体写入Hash。
func (r *redisStore) CreateSession(ctx context.Context, username string, s *Session) error {
	pairsJSON, err := json.Marshal(s.Pairs)
	if err != nil {
		return fmt.Errorf("无法序列化分类对: %w", err)
	}
	err = database.RDB.HSet(ctx, sessionKey(username), map[string]interface{}{
		fieldGameID:           s.GameID,
		fieldPairs:            string(pairsJSON),
		fieldRoundsPlayed:     s.RoundsPlayed,
		fieldCorrectGuesses:   s.CorrectGuesses,
		fieldIncorrectGuesses: s.IncorrectGuesses,
		fieldStreak:           s.Streak,
		fieldMaxStreak:        s.MaxStreak,
		fieldStartedAt:        strconv.FormatInt(s.StartedAt, 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("无法创建会话: %w", err)
	}
	return nil
}

func (r *redisStore) DeleteSession(ctx context.Context, username string) error {
	if err := database.RDB.Del(ctx, sessionKey(username)).Err(); err != nil {
		return fmt.Errorf("无法删除会话: %w", err)
	}
	return nil
}

// ApplyGuess 用HIncrBy推进计数器。
// 连对的最大值在增量之后修正，最后读回完整会话。
func (r *redisStore) ApplyGuess(ctx context.Context, username string, correct bool) (*Session, error) {
	key := sessionKey(username)

	if correct {
		if err := database.RDB.HIncrBy(ctx, key, fieldCorrectGuesses, 1).Err(); err != nil {
			return nil, fmt.Errorf("无法推进计数器: %w", err)
		}
		newStreak, err := database.RDB.HIncrBy(ctx, key, fieldStreak, 1).Result()
		if err != nil {
			return nil, fmt.Errorf("无法推进连对数: %w", err)
		}
		maxStreakStr, err := database.RDB.HGet(ctx, key, fieldMaxStreak).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("无法读取最大连对数: %w", err)
		}
		maxStreak, _ := strconv.ParseInt(maxStreakStr, 10, 64)
		if newStreak > maxStreak {
			if err := database.RDB.HSet(ctx, key, fieldMaxStreak, newStreak).Err(); err != nil {
				return nil, fmt.Errorf("无法更新最大连对数: %w", err)
			}
		}
	} else {
		if err := database.RDB.HIncrBy(ctx, key, fieldIncorrectGuesses, 1).Err(); err != nil {
			return nil, fmt.Errorf("无法推进计数器: %w", err)
		}
		if err := database.RDB.HSet(ctx, key, fieldStreak, 0).Err(); err != nil {
			return nil, fmt.Errorf("无法重置连对数: %w", err)
		}
	}

	if err := database.RDB.HIncrBy(ctx, key, fieldRoundsPlayed, 1).Err(); err != nil {
		return nil, fmt.Errorf("无法推进回合数: %w", err)
	}

	return r.GetSession(ctx, username)
}

func (r *redisStore) GetPendingAnswer(ctx context.Context, username string) (string, error) {
	answer, err := database.RDB.Get(ctx, answerKey(username)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("无法读取回合答案: %w", err)
	}
	return answer, nil
}

func (r *redisStore) SetPendingAnswer(ctx context.Context, username, itemID string) error {
	if err := database.RDB.Set(ctx, answerKey(username), itemID, 0).Err(); err != nil {
		return fmt.Errorf("无法写入回合答案: %w", err)
	}
	return nil
}

func (r *redisStore) DeletePendingAnswer(ctx context.Context, username string) error {
	if err := database.RDB.Del(ctx, answerKey(username)).Err(); err != nil {
		return fmt.Errorf("无法删除回合答案: %w", err)
	}
	return nil
}

func (r *redisStore) HasDailyLock(ctx context.Context, username, day string) (bool, error) {
	exists, err := database.RDB.Exists(ctx, dailyLockKey(username, day)).Result()
	if err != nil {
		return false, fmt.Errorf("无法检查每日锁: %w", err)
	}
	return exists > 0, nil
}

func (r *redisStore) SetDailyLock(ctx context.Context, username, day string, ttl time.Duration) error {
	if err := database.RDB.Set(ctx, dailyLockKey(username, day), "completed", ttl).Err(); err != nil {
		return fmt.Errorf("无法写入每日锁: %w", err)
	}
	return nil
}

func (r *redisStore) GetLegacyLock(ctx context.Context, username string) (int64, bool, error) {
	value, err := database.RDB.Get(ctx, legacyLockKey(username)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("无法读取旧版锁: %w", err)
	}
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// 无法解析的旧锁按不存在处理，调用方会把它清理掉
		return 0, true, nil
	}
	return ts, true, nil
}

func (r *redisStore) DeleteLegacyLock(ctx context.Context, username string) error {
	if err := database.RDB.Del(ctx, legacyLockKey(username)).Err(); err != nil {
		return fmt.Errorf("无法删除旧版锁: %w", err)
	}
	return nil
}

// sessionFromHash 把Hash字段解析为Session。
func sessionFromHash(fields map[string]string) (*Session, error) {
	s := &Session{GameID: fields[fieldGameID]}

	if pairsJSON := fields[fieldPairs]; pairsJSON != "" {
		if err := json.Unmarshal([]byte(pairsJSON), &s.Pairs); err != nil {
			return nil, fmt.Errorf("无法解析分类对: %w", err)
		}
	}
	s.RoundsPlayed, _ = strconv.Atoi(fields[fieldRoundsPlayed])
	s.CorrectGuesses, _ = strconv.Atoi(fields[fieldCorrectGuesses])
	s.IncorrectGuesses, _ = strconv.Atoi(fields[fieldIncorrectGuesses])
	s.Streak, _ = strconv.Atoi(fields[fieldStreak])
	s.MaxStreak, _ = strconv.Atoi(fields[fieldMaxStreak])
	s.StartedAt, _ = strconv.ParseInt(fields[fieldStartedAt], 10, 64)
	return s, nil
}
