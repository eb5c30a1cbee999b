package leaderboard

import "testing"

func TestAdjustIsDeterministic(t *testing.T) {
	first := Adjust(1000, 6, 9, 1)
	second := Adjust(1000, 6, 9, 1)
	if first != second {
		t.Errorf("相同输入应产生相同输出: %d != %d", first, second)
	}
}

func TestAdjustKnownValues(t *testing.T) {
	cases := []struct {
		name                       string
		rating, maxStreak          int
		correct, incorrect         int
		want                       int
	}{
		// outcome 9/30=0.3, expected 0.55, delta 30*(-0.25)*1.3 = -9.75
		{"好局仍低于期望", 1000, 6, 9, 1, 990},
		// outcome 0, expected 0.6, delta -18
		{"全错局", 1200, 0, 0, 10, 1182},
		// outcome 10/30, expected 0.55, 连对加成封顶1.5
		{"高分下的全对局", 1000, 10, 10, 0, 990},
	}

	for _, tc := range cases {
		got := Adjust(tc.rating, tc.maxStreak, tc.correct, tc.incorrect)
		if got != tc.want {
			t.Errorf("%s: Adjust(%d,%d,%d,%d) = %d, 期望 %d",
				tc.name, tc.rating, tc.maxStreak, tc.correct, tc.incorrect, got, tc.want)
		}
	}
}

func TestAdjustDirectionality(t *testing.T) {
	// 表现值上限按30计，单局10轮最多只有1/3。
	// 分数足够高时，即便全对也会掉分。
	if got := Adjust(1000, 10, 10, 0); got >= 1000 {
		t.Errorf("高分玩家的全对局也应掉分，实际 %d", got)
	}
	// 全错一定掉分
	if got := Adjust(1200, 0, 0, 10); got >= 1200 {
		t.Errorf("全错局应掉分，实际 %d", got)
	}
	// 同分之下，表现更好的局掉得更少
	better := Adjust(1000, 0, 9, 1)
	worse := Adjust(1000, 0, 5, 5)
	if better <= worse {
		t.Errorf("表现更好的局结算分应更高: %d (9对) vs %d (5对)", better, worse)
	}
}

func TestAdjustStreakBonusAmplifies(t *testing.T) {
	// 连对加成放大的是分差的绝对值，方向不变：
	// 掉分方向上有加成的局掉得更多
	without := Adjust(1000, 0, 9, 1)
	with := Adjust(1000, 6, 9, 1)
	if with >= without {
		t.Errorf("掉分方向上连对加成应放大跌幅: %d (无加成) vs %d (有加成)", without, with)
	}
}
