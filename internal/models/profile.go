package models

import "strings"

type DegreeLevel string

const (
	DegreeUnset     DegreeLevel = "unset"
	DegreeBachelors DegreeLevel = "bachelors"
	DegreeMasters   DegreeLevel = "masters"
	DegreePhD       DegreeLevel = "phd"
)

// Known reports whether d is one of the three real degree levels.
func (d DegreeLevel) Known() bool {
	switch DegreeLevel(strings.ToLower(string(d))) {
	case DegreeBachelors, DegreeMasters, DegreePhD:
		return true
	}
	return false
}

// Journey stages reported back by the profile service.
const (
	StageOnboarding   = 1
	StageDiscovery    = 2
	StageShortlist    = 3
	StageApplications = 4
)

// UserProfile is the remote profile record as exchanged with the profile
// service. Pointer fields are absent when nil.
type UserProfile struct {
	ID            int64       `json:"id,omitempty"`
	UserID        int64       `json:"user_id,omitempty"`
	DegreeLevel   DegreeLevel `json:"degree_level,omitempty"`
	GPA           *float64    `json:"gpa,omitempty"`
	IELTSScore    *float64    `json:"ielts_score,omitempty"`
	GREScore      *int        `json:"gre_score,omitempty"`
	Budget        *int64      `json:"budget,omitempty"`
	TargetCountry string      `json:"target_country,omitempty"`
	CurrentStage  int         `json:"current_stage,omitempty"`
	Email         string      `json:"email,omitempty"`
	FullName      string      `json:"full_name,omitempty"`
}

// HasDegree reports a degree level other than empty or unset.
func (p *UserProfile) HasDegree() bool {
	return p != nil && p.DegreeLevel != "" && p.DegreeLevel != DegreeUnset
}

// HasTestScore reports an IELTS or GRE score.
func (p *UserProfile) HasTestScore() bool {
	return p != nil && (p.IELTSScore != nil || p.GREScore != nil)
}

// BudgetValue returns the annual budget, 0 when absent.
func (p *UserProfile) BudgetValue() int64 {
	if p == nil || p.Budget == nil {
		return 0
	}
	return *p.Budget
}

// ProfileUpdate is a partial profile patch. Absent fields are left alone,
// explicit nulls clear the stored value.
type ProfileUpdate struct {
	DegreeLevel   Optional[DegreeLevel] `json:"degree_level,omitzero"`
	GPA           Optional[float64]     `json:"gpa,omitzero"`
	IELTSScore    Optional[float64]     `json:"ielts_score,omitzero"`
	GREScore      Optional[int]         `json:"gre_score,omitzero"`
	Budget        Optional[int64]       `json:"budget,omitzero"`
	TargetCountry Optional[string]      `json:"target_country,omitzero"`
}

// IsEmpty reports a patch that touches no field.
func (u ProfileUpdate) IsEmpty() bool {
	return !u.DegreeLevel.Set && !u.GPA.Set && !u.IELTSScore.Set &&
		!u.GREScore.Set && !u.Budget.Set && !u.TargetCountry.Set
}

// ApplyTo returns a copy of p with the patch merged in.
func (u ProfileUpdate) ApplyTo(p *UserProfile) *UserProfile {
	out := UserProfile{}
	if p != nil {
		out = *p
	}
	if u.DegreeLevel.Set {
		out.DegreeLevel = u.DegreeLevel.Value
	}
	if u.GPA.Set {
		out.GPA = u.GPA.Ptr()
	}
	if u.IELTSScore.Set {
		out.IELTSScore = u.IELTSScore.Ptr()
	}
	if u.GREScore.Set {
		out.GREScore = u.GREScore.Ptr()
	}
	if u.Budget.Set {
		out.Budget = u.Budget.Ptr()
	}
	if u.TargetCountry.Set {
		out.TargetCountry = u.TargetCountry.Value
	}
	return &out
}
