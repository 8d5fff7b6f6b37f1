package models

// ProbeOutcome 存活探测的分类结果
type ProbeOutcome int

const (
	// OutcomeDead 链接确定失效
	OutcomeDead ProbeOutcome = iota

	// OutcomeAlive 链接确认存活
	OutcomeAlive

	// OutcomeChallenge 命中反爬质询,需要浏览器升级复核
	OutcomeChallenge
)

// String 返回分类结果的可读标签
func (o ProbeOutcome) String() string {
	switch o {
	case OutcomeAlive:
		return "alive"
	case OutcomeChallenge:
		return "challenge"
	default:
		return "dead"
	}
}
