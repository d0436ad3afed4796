package safety

// DefaultLexicon returns the production phrase tables. The service answers
// health, sports, nutrition, and psychology questions; school subjects and
// coursework are redirected.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		ExclusionPhrases: []string{
			"语文", "数学", "英语", "物理", "化学",
			"历史", "地理", "政治", "生物",
			"作文", "考试", "作业", "成绩单",
			"学习", "功课", "补习",
		},
		ExclusionMessage: "我们是大健康智能体，专注于健康、体育、营养、心理等相关内容。" +
			"您可以问我运动训练、健康饮食、心理调节等方面的问题，换个问题试试吧。",
		RiskTopics: []RiskTopic{
			{
				Kind: RiskMedical,
				Phrases: []string{
					"发烧", "发热", "高烧", "低烧",
					"吃药", "药物", "用药",
					"生病", "疾病", "病了",
					"疼痛", "痛", "不舒服",
					"受伤", "伤口", "骨折", "扭伤",
					"头晕", "恶心", "呕吐",
					"咳嗽", "感冒", "流感",
				},
				Warning: "⚠️ 健康提示：建议及时就医，以下内容仅供参考，不能替代专业医疗诊断。",
			},
			{
				Kind: RiskMental,
				Phrases: []string{
					"自杀", "想死", "不想活",
					"抑郁", "抑郁症",
					"活不下去", "没有希望",
					"轻生", "结束生命",
				},
				Warning: "⚠️ 紧急提示：请立即联系专业心理医生或拨打心理援助热线。\n\n" +
					"全国心理援助热线：400-161-9995\n" +
					"北京心理危机干预热线：010-82951332\n\n" +
					"您的生命很重要，请寻求专业帮助。",
			},
		},
	}
}
