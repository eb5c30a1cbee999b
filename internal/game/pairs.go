package game

import "math/rand"

// Categories 是可供比较的内容分类池。
// 分类的可读名称即内容平台上的社区名。
var Categories = []string{
	"funny", "AskReddit", "gaming", "pics", "science",
	"todayilearned", "aww", "movies", "videos", "Music",
	"gifs", "EarthPorn", "Showerthoughts", "Jokes", "DIY",
	"LifeProTips", "food", "mildlyinteresting", "Art", "sports",
	"television", "space", "nottheonion", "photoshopbattles", "Documentaries",
	"UpliftingNews", "history", "Futurology", "OldSchoolCool", "dataisbeautiful",
	"Fitness", "memes", "wholesomememes", "interestingasfuck", "oddlysatisfying",
	"lifehacks", "travel", "NatureIsFuckingLit", "FoodPorn", "Unexpected",
	"gardening", "photography", "mildlyinfuriating", "CrappyDesign", "GifRecipes",
	"drawing", "soccer", "woodworking", "cars", "Eyebleach",
	"BetterEveryLoop", "HighQualityGifs", "Cooking", "MadeMeSmile", "recipes",
	"whatisthisthing", "YouShouldKnow", "battlestations", "MealPrepSunday", "anime",
	"MemeEconomy", "natureismetal", "dogs", "IdiotsInCars", "Awwducational",
	"starterpacks", "AmItheAsshole", "Outdoors", "wallpaper", "horror",
	"RoomPorn", "comicbooks", "PerfectTiming", "JusticeServed", "Astronomy",
	"CozyPlaces", "HistoryMemes", "math", "changemyview", "CampingandHiking",
	"investing", "hiking", "Economics", "ArtefactPorn", "Graffiti",
	"BuyItForLife", "AccidentalRenaissance", "FellowKids", "environment", "SketchDaily",
	"nextfuckinglevel", "EDM", "RocketLeague", "LivestreamFail", "ExposurePorn",
	"technicallythetruth", "classicalmusic", "LearnUselessTalents", "surrealmemes", "chemicalreactiongifs",
	"roadtrip", "dogswithjobs", "evilbuildings", "MachinePorn", "PenmanshipPorn",
	"Twitch", "perfectloops", "rareinsults", "polandball", "WeWantPlates",
	"analog", "psychology", "antiMLM", "audiophile", "AnimalTextGifs",
	"AbsoluteUnits", "truegaming", "CrazyIdeas",
}

// GeneratePairs 为一局游戏生成TotalRounds个分类对。
// 一对内的两个分类必然不同；以(min,max)归一化后的无序对
// 在整局内不重复，抽到重复就重抽。
func GeneratePairs() [][2]string {
	pairs := make([][2]string, 0, TotalRounds)
	used := make(map[[2]int]bool, TotalRounds)

	for len(pairs) < TotalRounds {
		first := rand.Intn(len(Categories))
		second := rand.Intn(len(Categories))
		if first == second {
			second = (second + 1) % len(Categories)
		}

		normalized := [2]int{min(first, second), max(first, second)}
		if used[normalized] {
			continue
		}
		used[normalized] = true
		pairs = append(pairs, [2]string{Categories[first], Categories[second]})
	}

	return pairs
}
