package models

import "math"

// Rank tier names, lowest to highest.
const (
	RankCodeNovice  = "Code Novice"
	RankDevSavage   = "Dev Savage"
	RankForgeElite  = "Forge Elite"
	RankTechMaestro = "Tech Maestro"
	RankForgeMaster = "Forge Master"
)

// RankTier maps a half-open score range [MinScore, MaxScore) to a rank
// name. The top tier includes its upper bound.
type RankTier struct {
	Name     string  `json:"name"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
}

// RankTiers lists all tiers in ascending score order.
var RankTiers = []RankTier{
	{Name: RankCodeNovice, MinScore: 0, MaxScore: 20},
	{Name: RankDevSavage, MinScore: 20, MaxScore: 40},
	{Name: RankForgeElite, MinScore: 40, MaxScore: 60},
	{Name: RankTechMaestro, MinScore: 60, MaxScore: 80},
	{Name: RankForgeMaster, MinScore: 80, MaxScore: 100},
}

// RankFromScore maps a total score to its rank tier. Scores are clamped
// to [0, 100] before lookup.
func RankFromScore(score float64) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	for _, tier := range RankTiers {
		if score >= tier.MinScore && score < tier.MaxScore {
			return tier.Name
		}
	}
	return RankForgeMaster
}

// ValidRank reports whether name is a known rank tier.
func ValidRank(name string) bool {
	for _, tier := range RankTiers {
		if tier.Name == name {
			return true
		}
	}
	return false
}

// ActivityPoints holds the scoring configuration for event activities.
type ActivityPoints struct {
	ForkCreated   int `json:"fork_created"`
	BranchCreated int `json:"branch_created"`
	Commit        int `json:"commit"`
	PRCreated     int `json:"pr_created"`
	PRMerged      int `json:"pr_merged"`

	PerLineAdded   float64 `json:"per_line_added"`
	PerLineDeleted float64 `json:"per_line_deleted"`
	PerFileChanged float64 `json:"per_file_changed"`

	LinesAddedCap   float64 `json:"lines_added_cap"`
	LinesDeletedCap float64 `json:"lines_deleted_cap"`
	FilesChangedCap float64 `json:"files_changed_cap"`
}

// DefaultActivityPoints returns the standard activity scoring configuration.
func DefaultActivityPoints() ActivityPoints {
	return ActivityPoints{
		ForkCreated:     5,
		BranchCreated:   3,
		Commit:          2,
		PRCreated:       10,
		PRMerged:        20,
		PerLineAdded:    0.1,
		PerLineDeleted:  0.05,
		PerFileChanged:  0.5,
		LinesAddedCap:   20,
		LinesDeletedCap: 10,
		FilesChangedCap: 15,
	}
}

// BasePoints returns the flat points awarded for an activity type.
// Unknown types score zero.
func (p ActivityPoints) BasePoints(activityType string) int {
	switch activityType {
	case ActivityForkCreated:
		return p.ForkCreated
	case ActivityBranchCreated:
		return p.BranchCreated
	case ActivityCommit:
		return p.Commit
	case ActivityPRCreated:
		return p.PRCreated
	case ActivityPRMerged:
		return p.PRMerged
	default:
		return 0
	}
}

// ChangeMetrics describes the size of a code change.
type ChangeMetrics struct {
	LinesAdded   int `json:"lines_added"`
	LinesDeleted int `json:"lines_deleted"`
	FilesChanged int `json:"files_changed"`
}

// Score computes base points plus capped change bonuses, rounded to the
// nearest integer. Never negative.
func (p ActivityPoints) Score(activityType string, change ChangeMetrics) int {
	total := float64(p.BasePoints(activityType))
	total += math.Min(float64(change.LinesAdded)*p.PerLineAdded, p.LinesAddedCap)
	total += math.Min(float64(change.LinesDeleted)*p.PerLineDeleted, p.LinesDeletedCap)
	total += math.Min(float64(change.FilesChanged)*p.PerFileChanged, p.FilesChangedCap)
	score := int(math.Round(total))
	if score < 0 {
		return 0
	}
	return score
}

// SubScoreWeight scales a raw metric into a capped sub-score:
// min(raw/Divisor*Points, Points).
type SubScoreWeight struct {
	Divisor float64 `json:"divisor"`
	Points  float64 `json:"points"`
}

// Score applies the weight to a raw metric value.
func (w SubScoreWeight) Score(raw float64) float64 {
	if raw < 0 {
		raw = 0
	}
	return math.Min(raw/w.Divisor*w.Points, w.Points)
}

// RankWeights holds the sub-score weights of the ranking formula.
type RankWeights struct {
	Stars          SubScoreWeight `json:"stars"`
	Commits        SubScoreWeight `json:"commits"`
	PullRequests   SubScoreWeight `json:"pull_requests"`
	Issues         SubScoreWeight `json:"issues"`
	RecentActivity SubScoreWeight `json:"recent_activity"`
	Proposals      SubScoreWeight `json:"proposals"`
	Contributions  SubScoreWeight `json:"contributions"`

	EventCount      SubScoreWeight `json:"event_count"`
	EventScore      SubScoreWeight `json:"event_score"`
	ActivityTotal   SubScoreWeight `json:"activity_total"`
	ActivityRecent  SubScoreWeight `json:"activity_recent"`
	RecentYears     int            `json:"recent_years"`
	RecentWindowDay int            `json:"recent_window_days"`
}

// DefaultRankWeights returns the standard ranking configuration.
func DefaultRankWeights() RankWeights {
	return RankWeights{
		Stars:           SubScoreWeight{Divisor: 50, Points: 10},
		Commits:         SubScoreWeight{Divisor: 1000, Points: 20},
		PullRequests:    SubScoreWeight{Divisor: 100, Points: 10},
		Issues:          SubScoreWeight{Divisor: 50, Points: 5},
		RecentActivity:  SubScoreWeight{Divisor: 200, Points: 10},
		Proposals:       SubScoreWeight{Divisor: 5, Points: 30},
		Contributions:   SubScoreWeight{Divisor: 50, Points: 20},
		EventCount:      SubScoreWeight{Divisor: 5, Points: 6},
		EventScore:      SubScoreWeight{Divisor: 100, Points: 6},
		ActivityTotal:   SubScoreWeight{Divisor: 50, Points: 3},
		ActivityRecent:  SubScoreWeight{Divisor: 10, Points: 2},
		RecentYears:     4,
		RecentWindowDay: 30,
	}
}

// GitHubMetrics aggregates a user's public GitHub footprint.
type GitHubMetrics struct {
	Stars          int `json:"stars"`
	Commits        int `json:"commits"`
	PullRequests   int `json:"pull_requests"`
	Issues         int `json:"issues"`
	RecentActivity int `json:"recent_activity"`
}

// ScoreBreakdown is one component of a computed ranking.
type ScoreBreakdown struct {
	Raw    float64 `json:"raw"`
	Score  float64 `json:"score"`
	Weight string  `json:"weight"`
}

// RankingResult is the outcome of a full ranking computation.
type RankingResult struct {
	TotalScore float64                   `json:"total_score"`
	Rank       string                    `json:"rank"`
	Breakdown  map[string]ScoreBreakdown `json:"breakdown"`
}
