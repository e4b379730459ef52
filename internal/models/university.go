package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a record identifier. The catalog service emits numeric ids; other
// sources use strings. Both decode into the same form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type MatchTier string

const (
	TierSafe   MatchTier = "Safe"
	TierTarget MatchTier = "Target"
	TierDream  MatchTier = "Dream"
)

// Equal compares tiers case-insensitively.
func (t MatchTier) Equal(other string) bool {
	return strings.EqualFold(string(t), other)
}

// University is a catalog entry supplied by the recommendation service.
type University struct {
	ID             ID        `json:"id"`
	Name           string    `json:"name"`
	Country        string    `json:"country"`
	Location       string    `json:"location,omitempty"`
	TuitionFeeUSD  float64   `json:"tuition_fee"`
	AcceptanceRate float64   `json:"acceptance_rate"`
	Ranking        *int      `json:"ranking,omitempty"`
	MatchTier      MatchTier `json:"match_tier,omitempty"`
}

// Entry points of the lock transition.
const (
	EntryDiscovery = "discovery"
	EntryReview    = "review"
)

// LockedUniversity is the single university a user has committed to.
type LockedUniversity struct {
	University
	LockedAt   time.Time `json:"locked_at"`
	EntryPoint string    `json:"entry_point,omitempty"`
}

// LockResult is the remote lock service response.
type LockResult struct {
	Message      string `json:"message"`
	TasksCreated int    `json:"tasks_created"`
	Stage        int    `json:"stage,omitempty"`
}
