// Package targets manages user-entered quarterly business targets with
// a full audit trail of edits.
package targets

import (
	"time"

	"github.com/google/uuid"
)

// Target is one quarterly goal for a brand within a currency region.
type Target struct {
	ID                 uuid.UUID `json:"id"`
	Currency           string    `json:"currency"`
	Line               string    `json:"line"`
	Year               int       `json:"year"`
	Quarter            int       `json:"quarter"`
	DepositTarget      float64   `json:"depositTarget"`
	GGRTarget          float64   `json:"ggrTarget"`
	ActiveMemberTarget int       `json:"activeMemberTarget"`
	UpdatedBy          string    `json:"updatedBy"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
