package services

import (
	"sort"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-seating/models"
)

// Scoring table. Every number the heuristic uses lives here.
const (
	CapacityExactPoints   = 40
	CapacityPlusOnePoints = 35
	CapacityPlusTwoPoints = 30
	CapacityClosePoints   = 20 // diff 3 or 4
	CapacityLoosePoints   = 10

	PeakTightPoints  = 25 // diff <= 1
	PeakMediumPoints = 15 // diff <= 3
	PeakLoosePoints  = 5
	OffPeakPoints    = 20

	SectionMatchPoints = 15
	SectionKnownPoints = 10
	SectionNonePoints  = 5

	AvailablePoints = 10
	// LoadBalancePoints stays zero. An exact fit off-peak, with no section
	// preference, on an available table scores 40 + 20 + 5 + 10 = 75, and any
	// non-zero value here would shift that total.
	LoadBalancePoints = 0

	RomanticPartySize = 2
	RomanticFromHour  = 18
	GroupPartySize    = 6

	ReadyToUseAfter = 30 * time.Minute
)

var peakHours = [][2]int{{12, 14}, {18, 21}}

var (
	romanticSections = []string{"window", "patio"}
	groupSections    = []string{"private", "back"}
)

// ScoreBreakdown is the per-factor detail behind a Recommendation.
type ScoreBreakdown struct {
	Capacity    int `json:"capacity"`
	TimeSlot    int `json:"time_slot"`
	Section     int `json:"section"`
	Available   int `json:"available"`
	LoadBalance int `json:"load_balance"`
}

func (b ScoreBreakdown) Total() int {
	return b.Capacity + b.TimeSlot + b.Section + b.Available + b.LoadBalance
}

type Recommendation struct {
	Table      models.Table   `json:"table"`
	Score      int            `json:"score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Reasons    []string       `json:"reasons"`
	ReadyToUse bool           `json:"ready_to_use"`
}

// ScoringEngine ranks candidate tables. It holds no state between calls.
type ScoringEngine struct {
	loc *time.Location
	now func() time.Time
}

// NewScoringEngine returns an engine that reads clock hours in loc. A nil loc
// uses the location carried by each requested instant.
func NewScoringEngine(loc *time.Location) *ScoringEngine {
	return &ScoringEngine{loc: loc, now: time.Now}
}

// Rank scores every candidate and returns them best first. Candidates with
// equal scores keep their incoming order.
func (se *ScoringEngine) Rank(candidates []models.Table, partySize int, requestedAt time.Time) []Recommendation {
	recs := make([]Recommendation, 0, len(candidates))
	for _, t := range candidates {
		recs = append(recs, se.Score(t, partySize, requestedAt))
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	return recs
}

func (se *ScoringEngine) Score(table models.Table, partySize int, requestedAt time.Time) Recommendation {
	if se.loc != nil {
		requestedAt = requestedAt.In(se.loc)
	}
	hour := requestedAt.Hour()
	diff := table.Capacity - partySize

	var b ScoreBreakdown
	var reasons []string

	b.Capacity, reasons = capacityFit(diff, reasons)
	b.TimeSlot, reasons = timeSlot(hour, diff, reasons)
	b.Section, reasons = sectionFit(table.Section, partySize, hour, reasons)

	ready := false
	if table.Status == models.TableAvailable {
		b.Available = AvailablePoints
		// Informational only, no extra points.
		if table.LastOccupiedAt == nil || se.now().Sub(*table.LastOccupiedAt) > ReadyToUseAfter {
			ready = true
			reasons = append(reasons, "Ready to use")
		}
	}
	b.LoadBalance = LoadBalancePoints

	return Recommendation{
		Table:      table,
		Score:      b.Total(),
		Breakdown:  b,
		Reasons:    reasons,
		ReadyToUse: ready,
	}
}

func capacityFit(diff int, reasons []string) (int, []string) {
	switch {
	case diff == 0:
		return CapacityExactPoints, append(reasons, "Perfect fit")
	case diff == 1:
		return CapacityPlusOnePoints, append(reasons, "Excellent fit")
	case diff == 2:
		return CapacityPlusTwoPoints, append(reasons, "Good fit")
	case diff >= 3 && diff <= 4:
		return CapacityClosePoints, append(reasons, "Acceptable fit")
	default:
		return CapacityLoosePoints, append(reasons, "Oversized table")
	}
}

func isPeakHour(hour int) bool {
	for _, r := range peakHours {
		if hour >= r[0] && hour <= r[1] {
			return true
		}
	}
	return false
}

func timeSlot(hour, diff int, reasons []string) (int, []string) {
	if !isPeakHour(hour) {
		return OffPeakPoints, append(reasons, "Off-peak hour")
	}
	switch {
	case diff <= 1:
		return PeakTightPoints, append(reasons, "Peak hour optimal")
	case diff <= 3:
		return PeakMediumPoints, append(reasons, "Peak hour acceptable")
	default:
		return PeakLoosePoints, append(reasons, "Peak hour oversized")
	}
}

func sectionFit(section string, partySize, hour int, reasons []string) (int, []string) {
	lower := strings.ToLower(section)
	switch {
	case containsAny(lower, romanticSections) && partySize == RomanticPartySize && hour >= RomanticFromHour:
		return SectionMatchPoints, append(reasons, "Romantic setting")
	case containsAny(lower, groupSections) && partySize >= GroupPartySize:
		return SectionMatchPoints, append(reasons, "Group-friendly")
	case strings.TrimSpace(section) != "":
		return SectionKnownPoints, reasons
	default:
		return SectionNonePoints, reasons
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
