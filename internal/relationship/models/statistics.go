package models

// Statistics summarizes a filtered edge set. Every count is taken over the same
// predicate as List, so Total equals the number of rows List returns unpaged.
type Statistics struct {
	Total                int                        `json:"total"`
	Active               int                        `json:"active"`
	Expired              int                        `json:"expired"`
	HighRisk             int                        `json:"high_risk"`
	Unverified           int                        `json:"unverified"`
	NeedingReview        int                        `json:"needing_review"`
	Escalated            int                        `json:"escalated"`
	ByType               map[string]int             `json:"by_type"`
	ByRiskLevel          map[RiskLevel]int          `json:"by_risk_level"`
	ByVerificationStatus map[VerificationStatus]int `json:"by_verification_status"`
	ByKind               map[Kind]int               `json:"by_kind"`
}

// NewStatistics returns statistics with every known enum bucket present at zero.
func NewStatistics() *Statistics {
	s := &Statistics{
		ByType:               map[string]int{},
		ByRiskLevel:          make(map[RiskLevel]int, len(RiskLevels)),
		ByVerificationStatus: make(map[VerificationStatus]int, len(VerificationStatuses)),
		ByKind:               make(map[Kind]int, len(Kinds)),
	}
	for _, r := range RiskLevels {
		s.ByRiskLevel[r] = 0
	}
	for _, v := range VerificationStatuses {
		s.ByVerificationStatus[v] = 0
	}
	for _, k := range Kinds {
		s.ByKind[k] = 0
	}
	return s
}
