package leaderboard

// 定义与天梯相关的Redis键名
const (
	// RankingKey 是一个 Redis Sorted Set。
	// Score: 用户的天梯分
	// Member: 用户名
	// 每个用户名至多一条记录，名次由集合实时推导，不单独存储。
	RankingKey = "leaderboard:rating"
)
