package kudos

import (
	"strings"
	"time"
)

const (
	SourceWeb   = "WEB"
	SourceSlack = "SLACK"
)

const (
	CategoryTeamwork    = "TEAMWORK"
	CategoryInnovation  = "INNOVATION"
	CategoryExcellence  = "EXCELLENCE"
	CategoryLeadership  = "LEADERSHIP"
	CategoryHelpfulness = "HELPFULNESS"
)

// Categories lists the fixed set in display order.
var Categories = []string{
	CategoryTeamwork,
	CategoryInnovation,
	CategoryExcellence,
	CategoryLeadership,
	CategoryHelpfulness,
}

// NormalizeCategory matches the input case-insensitively against the fixed
// set, returning the canonical form.
func NormalizeCategory(input string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(input))
	for _, category := range Categories {
		if category == upper {
			return category, true
		}
	}
	return "", false
}

type Kudos struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"orgId"`
	FromUserID string    `json:"fromUserId"`
	ToUserID   string    `json:"toUserId"`
	FromName   string    `json:"fromName,omitempty"`
	ToName     string    `json:"toName,omitempty"`
	Category   string    `json:"category"`
	Message    string    `json:"message"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Filter narrows the feed; zero values mean no constraint.
type Filter struct {
	ToUserID   string
	FromUserID string
	Category   string
	Limit      int
	Offset     int
}
