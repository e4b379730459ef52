// Package scoring computes the profile integrity score and the presentation
// values derived from it.
package scoring

import (
	"fmt"
	"math"

	"studyabroad-workers/internal/models"
)

const bucketPoints = 20

// Breakdown reports which of the five buckets contributed to a score.
type Breakdown struct {
	Authenticated  bool `json:"authenticated"`
	AcademicTarget bool `json:"academicTarget"`
	LockedTarget   bool `json:"lockedUniversity"`
	TestScores     bool `json:"testScores"`
	Budget         bool `json:"budget"`
}

// Score sums 20 points per satisfied bucket.
func (b Breakdown) Score() int {
	score := 0
	for _, ok := range []bool{b.Authenticated, b.AcademicTarget, b.LockedTarget, b.TestScores, b.Budget} {
		if ok {
			score += bucketPoints
		}
	}
	return score
}

// Missing lists the unsatisfied buckets in display order.
func (b Breakdown) Missing() []string {
	var out []string
	if !b.Authenticated {
		out = append(out, "authentication")
	}
	if !b.AcademicTarget {
		out = append(out, "academicTarget")
	}
	if !b.LockedTarget {
		out = append(out, "lockedUniversity")
	}
	if !b.TestScores {
		out = append(out, "testScores")
	}
	if !b.Budget {
		out = append(out, "budget")
	}
	return out
}

// Evaluate fills the five buckets. A nil profile can only satisfy the
// authentication and lock buckets.
func Evaluate(profile *models.UserProfile, hasLockedUniversity, isAuthenticated bool) Breakdown {
	b := Breakdown{
		Authenticated: isAuthenticated,
		LockedTarget:  hasLockedUniversity,
	}
	if profile == nil {
		return b
	}
	b.AcademicTarget = profile.HasDegree() && profile.GPA != nil && profile.TargetCountry != ""
	b.TestScores = profile.HasTestScore()
	b.Budget = profile.BudgetValue() > 0
	return b
}

// ComputeScore returns the integrity score in {0, 20, ..., 100}.
func ComputeScore(profile *models.UserProfile, hasLockedUniversity, isAuthenticated bool) int {
	return Evaluate(profile, hasLockedUniversity, isAuthenticated).Score()
}

type Tier string

const (
	TierIncomplete Tier = "incomplete"
	TierInProgress Tier = "in_progress"
	TierComplete   Tier = "complete"
)

type Feedback struct {
	Tier    Tier   `json:"tier"`
	Message string `json:"message"`
	Color   string `json:"color"`
}

func FeedbackFor(score int) Feedback {
	switch {
	case score < 50:
		return Feedback{Tier: TierIncomplete, Message: "Profile Incomplete. Calibration Required.", Color: "orange"}
	case score >= 80:
		return Feedback{Tier: TierComplete, Message: "Optimization Complete. Ready for submission.", Color: "emerald"}
	default:
		return Feedback{Tier: TierInProgress, Message: "Profile in progress. Complete remaining steps.", Color: "indigo"}
	}
}

const DefaultRadius = 56.0

// Circle holds the SVG stroke values of the progress ring.
type Circle struct {
	Radius        float64 `json:"radius"`
	Circumference float64 `json:"circumference"`
	Offset        float64 `json:"offset"`
}

func CircleProgress(score int, radius float64) (Circle, error) {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return Circle{}, fmt.Errorf("radius must be positive, got %v", radius)
	}
	c := 2 * math.Pi * radius
	return Circle{
		Radius:        radius,
		Circumference: c,
		Offset:        c * (1 - float64(score)/100),
	}, nil
}

// Stage derives the journey stage: a lock wins over a shortlist, which wins
// over a complete onboarding profile.
func Stage(profile *models.UserProfile, shortlisted int, locked bool) int {
	switch {
	case locked:
		return models.StageApplications
	case shortlisted > 0:
		return models.StageShortlist
	case profile != nil && profile.GPA != nil && profile.HasDegree() &&
		profile.Budget != nil && profile.TargetCountry != "":
		return models.StageDiscovery
	default:
		return models.StageOnboarding
	}
}
