package game

import "time"

// --- Redis 键名 ---
// 所有键都按用户隔离；每日锁额外按UTC日期隔离。

const (
	// sessionKeyPrefix 是活动会话Hash的键前缀。
	// Key: game:session:<username>
	sessionKeyPrefix = "game:session:"

	// answerKeyPrefix 是待猜回合答案String的键前缀。
	// Key: game:answer:<username>
	// Value: 本回合分数更高一方的内容ID
	answerKeyPrefix = "game:answer:"

	// dailyLockKeyPrefix 是每日完成锁String的键前缀。
	// Key: game:daily:<UTC日期>:<username>，TTL到下一个UTC零点
	dailyLockKeyPrefix = "game:daily:"

	// legacyLockKeyPrefix 是旧版单时间戳锁的键前缀，遇到时就地迁移。
	// Key: game:last_completed:<username>
	legacyLockKeyPrefix = "game:last_completed:"
)

// --- 会话 Hash 字段名 ---

const (
	fieldGameID           = "gameId"
	fieldPairs            = "pairs"
	fieldRoundsPlayed     = "roundsPlayed"
	fieldCorrectGuesses   = "correctGuesses"
	fieldIncorrectGuesses = "incorrectGuesses"
	fieldStreak           = "streak"
	fieldMaxStreak        = "maxStreak"
	fieldStartedAt        = "gameStartTime"
)

func sessionKey(username string) string {
	return sessionKeyPrefix + username
}

func answerKey(username string) string {
	return answerKeyPrefix + username
}

func dailyLockKey(username, day string) string {
	return dailyLockKeyPrefix + day + ":" + username
}

func legacyLockKey(username string) string {
	return legacyLockKeyPrefix + username
}

// --- UTC 日界计算 ---

// dayKey 返回时刻t所在UTC日的键片段，形如 2025-08-29。
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// timeUntilNextUTCDay 返回从t到下一个UTC零点的剩余时间。
func timeUntilNextUTCDay(t time.Time) time.Duration {
	utc := t.UTC()
	nextMidnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return nextMidnight.Sub(utc)
}
