package models

import "time"

// RiskLevel is the categorical bucket a score maps onto.
type RiskLevel string

const (
	LevelSafe     RiskLevel = "SAFE"
	LevelLow      RiskLevel = "LOW"
	LevelMedium   RiskLevel = "MEDIUM"
	LevelHigh     RiskLevel = "HIGH"
	LevelCritical RiskLevel = "CRITICAL"
)

// TraceNode is created during BFS and lives only for one analysis.
type TraceNode struct {
	Address      string
	Distance     int // hops from origin, >= 1
	Contribution float64
	Tags         []RiskTag
	Terminal     bool
	Unavailable  bool // metadata could not be fetched; treated as terminal
}

// FlaggedEntity is a TraceNode that carried at least one risk tag,
// as surfaced in a RiskReport.
type FlaggedEntity struct {
	Address      string    `json:"address"`
	Chain        string    `json:"chain"`
	Tag          RiskTag   `json:"tag"`
	Tags         []RiskTag `json:"tags,omitempty"`
	Distance     int       `json:"distance"`
	Contribution float64   `json:"contribution"`
	TxHash       string    `json:"txHash,omitempty"`
	Label        string    `json:"label,omitempty"`
}

// RiskScore is the Risk Scorer's pure output.
type RiskScore struct {
	Score   int       `json:"score"`
	Level   RiskLevel `json:"level"`
	Reasons []string  `json:"reasons"`
}

// RiskReport is the final, cacheable output of one analysis.
type RiskReport struct {
	TxID  string `json:"txId"`
	Chain string `json:"chain"`
	Depth int    `json:"depth"`

	RiskScore RiskScore `json:"riskScore"`

	FlaggedEntities []FlaggedEntity `json:"flaggedEntities"`

	TotalAddressesAnalyzed    int       `json:"totalAddressesAnalyzed"`
	TotalTransactionsAnalyzed int       `json:"transactionsTraced"`
	APICallsUsed              int       `json:"apiCallsUsed"`
	CircularPaths             int       `json:"circularPaths"`
	GeneratedAt               time.Time `json:"generatedAt"`
}
