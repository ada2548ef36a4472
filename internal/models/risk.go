package models

// RiskLevel 消息风险级别
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLevelLow:      0,
	RiskLevelMedium:   1,
	RiskLevelHigh:     2,
	RiskLevelCritical: 3,
}

// Rank 风险级别序数，用于比较
func (r RiskLevel) Rank() int {
	return riskRank[r]
}

// AtLeast 判断当前级别是否不低于给定级别
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Rank() >= other.Rank()
}

// IsCrisis 是否触发危机处理路径
func (r RiskLevel) IsCrisis() bool {
	return r == RiskLevelHigh || r == RiskLevelCritical
}

// Valid 是否为合法级别
func (r RiskLevel) Valid() bool {
	_, ok := riskRank[r]
	return ok
}
