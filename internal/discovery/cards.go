package discovery

import (
	"sort"

	"studyabroad-workers/internal/models"
)

const defaultRingScore = 75

// RingScore is 100 minus the ranking clamped to [0,100], or 75 for an
// unranked university.
func RingScore(u models.University) int {
	if u.Ranking == nil {
		return defaultRingScore
	}
	s := 100 - *u.Ranking
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

type Band string

const (
	BandStrong   Band = "strong"
	BandModerate Band = "moderate"
	BandWeak     Band = "weak"
)

func RingBand(score int) Band {
	switch {
	case score > 80:
		return BandStrong
	case score > 50:
		return BandModerate
	default:
		return BandWeak
	}
}

// AcceptanceBucket maps an acceptance rate to 1 (most selective) .. 5.
func AcceptanceBucket(rate float64) int {
	switch {
	case rate < 10:
		return 1
	case rate < 25:
		return 2
	case rate < 50:
		return 3
	case rate < 75:
		return 4
	default:
		return 5
	}
}

// DeriveMatchTier classifies a university by acceptance rate.
func DeriveMatchTier(acceptanceRate float64) models.MatchTier {
	switch {
	case acceptanceRate > 60:
		return models.TierSafe
	case acceptanceRate >= 30:
		return models.TierTarget
	default:
		return models.TierDream
	}
}

// NormalizeTiers fills in missing match tiers in place.
func NormalizeTiers(universities []models.University) {
	for i := range universities {
		if universities[i].MatchTier == "" {
			universities[i].MatchTier = DeriveMatchTier(universities[i].AcceptanceRate)
		}
	}
}

const unrankedSortKey = 999

// SortByRanking orders by ranking ascending; unranked entries sort as 999.
func SortByRanking(universities []models.University) {
	key := func(u models.University) int {
		if u.Ranking == nil {
			return unrankedSortKey
		}
		return *u.Ranking
	}
	sort.SliceStable(universities, func(i, j int) bool {
		return key(universities[i]) < key(universities[j])
	})
}

// Card is a university with its display indicators.
type Card struct {
	models.University
	RingScore        int  `json:"ringScore"`
	RingBand         Band `json:"ringBand"`
	AcceptanceBucket int  `json:"acceptanceBucket"`
	Shortlisted      bool `json:"shortlisted"`
}

// Annotate builds cards for universities. shortlisted may be nil.
func Annotate(universities []models.University, shortlisted func(id models.ID) bool) []Card {
	cards := make([]Card, 0, len(universities))
	for _, u := range universities {
		score := RingScore(u)
		c := Card{
			University:       u,
			RingScore:        score,
			RingBand:         RingBand(score),
			AcceptanceBucket: AcceptanceBucket(u.AcceptanceRate),
		}
		if shortlisted != nil {
			c.Shortlisted = shortlisted(u.ID)
		}
		cards = append(cards, c)
	}
	return cards
}
