package user

import "strconv"

// --- Redis 键名 ---

const (
	// statKeyPrefix 是每用户统计Hash的键前缀。
	// Key: user:stat:<username>
	// Field: rating / correctGuesses / incorrectGuesses / gamesPlayed / streak / lastPlayDate
	statKeyPrefix = "user:stat:"

	// DirtySetKey 是一个 Redis Set，存储自上次快照以来
	// 统计数据发生变化的用户名。用于增量备份。
	DirtySetKey = "user:dirty"

	// ProcessingDirtySetKey 是备份过程中的临时集合。
	// DirtySetKey 在快照事务里被整体改名到这里，
	// 备份失败时并回DirtySetKey，成功时删除。
	ProcessingDirtySetKey = "user:dirty:processing"
)

// StatKey 返回指定用户的统计Hash键名。
func StatKey(username string) string {
	return statKeyPrefix + username
}

// --- Hash 字段名 ---

const (
	FieldRating           = "rating"
	FieldCorrectGuesses   = "correctGuesses"
	FieldIncorrectGuesses = "incorrectGuesses"
	FieldGamesPlayed      = "gamesPlayed"
	FieldStreak           = "streak"
	FieldLastPlayDate     = "lastPlayDate"
)

// BaselineRating 是用户首次接触系统时的初始天梯分。
const BaselineRating = 1000

// Stats 是user:stat哈希的类型化视图。
// Redis中的字段以文本存储，读取时统一转为数值。
type Stats struct {
	Rating           int
	CorrectGuesses   int
	IncorrectGuesses int
	GamesPlayed      int
	Streak           int
	LastPlayDate     int64 // 毫秒时间戳，0表示从未完成过游戏
}

// statsFromHash 将HGetAll的结果解析为Stats。
// 缺失或非法的字段回退为零值，rating回退为初始分。
func statsFromHash(fields map[string]string) Stats {
	s := Stats{Rating: BaselineRating}
	if v, err := strconv.Atoi(fields[FieldRating]); err == nil {
		s.Rating = v
	}
	s.CorrectGuesses, _ = strconv.Atoi(fields[FieldCorrectGuesses])
	s.IncorrectGuesses, _ = strconv.Atoi(fields[FieldIncorrectGuesses])
	s.GamesPlayed, _ = strconv.Atoi(fields[FieldGamesPlayed])
	s.Streak, _ = strconv.Atoi(fields[FieldStreak])
	s.LastPlayDate, _ = strconv.ParseInt(fields[FieldLastPlayDate], 10, 64)
	return s
}
