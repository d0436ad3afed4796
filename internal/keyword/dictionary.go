package keyword

import "strings"

func containsPhrase(text, phrase string) bool {
	return strings.Contains(text, phrase)
}

// DefaultKeywords returns the production phrase table. Slice order is scan
// order, which fixes the first-seen ordering of detected categories.
func DefaultKeywords() []Entry {
	return []Entry{
		// 课课练
		{"课课练", CoursePractice},
		{"课练", CoursePractice},

		// 运动会
		{"全员运动会", SportsMeeting},
		{"运动会", SportsMeeting},
		{"运动会方案", SportsMeeting},

		// 动作库
		{"动作库", ExerciseLibrary},
		{"训练动作", ExerciseLibrary},
		{"练习动作", ExerciseLibrary},

		// 体测
		{"体测", FitnessTest},
		{"体测成绩", FitnessTest},
		{"体测分析", FitnessTest},
		{"成绩", FitnessTest},

		// 身体素质
		{"平衡", Balance},
		{"平衡能力", Balance},
		{"力量", Strength},
		{"柔韧", Flexibility},
		{"柔韧性", Flexibility},
		{"速度", Speed},
		{"耐力", Endurance},
		{"协调", Coordination},
		{"协调性", Coordination},
		{"爆发力", Explosive},

		// 具体项目
		{"50米", FiftyMeter},
		{"立定跳远", StandingJump},
		{"仰卧起坐", SitUps},
		{"引体向上", PullUps},
		{"坐位体前屈", SitReach},
		{"肺活量", VitalCapacity},
	}
}
