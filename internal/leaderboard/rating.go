package leaderboard

import "math"

// --- 天梯分算法常量 ---
// 这些常量是一套整体调参的结果，不要单独"修正"其中某一个。

const (
	// ratingBaseline 是期望胜率计算的基准分
	ratingBaseline = 800.0

	// kFactorDaily 是每日结算的K值，决定单局分数变化的幅度
	kFactorDaily = 30.0

	// outcomeCap 是表现值的计数上限。
	// 上限按30计，刻意大于单局的10轮：单局表现值最多只有10/30，
	// 配套的K值和连对加成都是按这个压缩后的幅度调的。
	outcomeCap = 30.0

	// 连对加成：每一连对+5%，封顶+50%
	streakBonusStep = 0.05
	streakBonusMax  = 0.5

	// 期望胜率的夹取区间，保证高低分玩家都有增减空间
	expectedFloor   = 0.2
	expectedCeiling = 0.8
)

// Adjust 根据一局完成的结果计算新的天梯分。
// 纯函数：相同输入必然产生相同输出。
func Adjust(currentRating, maxStreak, correctGuesses, incorrectGuesses int) int {
	totalGuesses := correctGuesses + incorrectGuesses

	// 1. 表现值 outcome ∈ [0, 1]
	var outcome float64
	if totalGuesses > 0 {
		outcome = math.Min(float64(correctGuesses), outcomeCap) / outcomeCap
	}

	// 2. 期望值 expected，由当前分相对基准分推出并夹取
	expected := 0.5 + (float64(currentRating)-ratingBaseline)/4000.0
	expected = math.Max(expectedFloor, math.Min(expected, expectedCeiling))

	// 3. 基础分差
	delta := kFactorDaily * (outcome - expected)

	// 4. 连对加成
	streakMultiplier := 1.0 + math.Min(float64(maxStreak)*streakBonusStep, streakBonusMax)
	delta *= streakMultiplier

	return int(math.Round(float64(currentRating) + delta))
}
