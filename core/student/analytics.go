package student

import (
	"errors"
	"math"
	"sort"

	"github.com/shule-project/shule/core"
	"github.com/shule-project/shule/core/user"
)

var (
	ErrNoGrades     = errors.New("no grades recorded")
	ErrNoActivities = errors.New("no extracurricular activities recorded")
)

type (
	// GradeStatistics describes one student's grade sample. StdDev is the
	// population standard deviation (divide by N).
	GradeStatistics struct {
		Mean   float64 `json:"mean"`
		Median float64 `json:"median"`
		Min    float64 `json:"min"`
		Max    float64 `json:"max"`
		StdDev float64 `json:"std_dev"`
	}

	// ECASummary describes one student's extracurricular load.
	ECASummary struct {
		TotalActivities int        `json:"total_activities"`
		TotalHours      float64    `json:"total_hours"`
		Activities      []Activity `json:"activities"`
	}

	// PopulationStatistics aggregates over every grade and activity row
	// across all students. Zero values stand in for averages of empty sets.
	PopulationStatistics struct {
		TotalStudents       int     `json:"total_students"`
		TotalGradeEntries   int     `json:"total_grade_entries"`
		TotalECAEntries     int     `json:"total_eca_entries"`
		AverageGrade        float64 `json:"average_grade"`
		MedianGrade         float64 `json:"median_grade"`
		GradeStdDev         float64 `json:"grade_std_dev"`
		AverageHoursPerWeek float64 `json:"average_hours_per_week"`
		TotalHours          float64 `json:"total_hours"`
		UniqueSubjects      int     `json:"unique_subjects"`
		UniqueActivities    int     `json:"unique_activities"`
	}

	// HistogramBucket is one bin of a grade distribution; the interval is
	// [Low, High), closed on both ends for the final bucket.
	HistogramBucket struct {
		Low   float64 `json:"low"`
		High  float64 `json:"high"`
		Count int     `json:"count"`
	}

	// Participation counts one student's activities, for the most-active
	// ranking.
	Participation struct {
		Username   string `json:"username"`
		Activities int    `json:"activities"`
	}
)

// Analytics derives descriptive statistics and chartable distributions from
// the grade and extracurricular collections. It exposes numbers only; turning
// them into charts is the consumer's concern.
type Analytics struct {
	repo  Repository
	users user.Repository
}

func NewAnalytics(repo Repository, users user.Repository) *Analytics {
	return &Analytics{repo: repo, users: users}
}

func (a *Analytics) scores(username string) ([]float64, error) {
	grades, err := a.repo.QueryGrades(username)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, 0, len(grades))
	for _, g := range grades {
		scores = append(scores, g.Score)
	}
	return scores, nil
}

// GPA converts the student's mean grade to a 4.0 scale (mean / 25), rounded
// to 2 decimal places. ErrNoGrades is returned when the student has no
// recorded grades.
func (a *Analytics) GPA(username string) (float64, error) {
	scores, err := a.scores(username)
	if err != nil {
		return 0, err
	}
	if len(scores) == 0 {
		return 0, ErrNoGrades
	}
	return core.Round2(mean(scores) / 25), nil
}

// GradeStatistics summarizes the student's grades, each figure rounded to 2
// decimal places.
func (a *Analytics) GradeStatistics(username string) (GradeStatistics, error) {
	scores, err := a.scores(username)
	if err != nil {
		return GradeStatistics{}, err
	}
	if len(scores) == 0 {
		return GradeStatistics{}, ErrNoGrades
	}
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return GradeStatistics{
		Mean:   core.Round2(mean(scores)),
		Median: core.Round2(median(scores)),
		Min:    core.Round2(min),
		Max:    core.Round2(max),
		StdDev: core.Round2(stdDev(scores)),
	}, nil
}

// ECASummary totals the student's extracurricular rows. ErrNoActivities is
// returned when the student has none.
func (a *Analytics) ECASummary(username string) (ECASummary, error) {
	activities, err := a.repo.QueryActivities(username)
	if err != nil {
		return ECASummary{}, err
	}
	if len(activities) == 0 {
		return ECASummary{}, ErrNoActivities
	}
	var hours float64
	for _, act := range activities {
		hours += act.HoursPerWeek
	}
	return ECASummary{
		TotalActivities: len(activities),
		TotalHours:      hours,
		Activities:      activities,
	}, nil
}

// PopulationStatistics aggregates across all students. Empty collections
// yield zero-valued aggregates, never NaN.
func (a *Analytics) PopulationStatistics() (PopulationStatistics, error) {
	students, err := a.users.FilterUsers(user.QueryFilter{Role: user.RoleStudent})
	if err != nil {
		return PopulationStatistics{}, err
	}
	grades, err := a.repo.QueryAllGrades()
	if err != nil {
		return PopulationStatistics{}, err
	}
	activities, err := a.repo.QueryAllActivities()
	if err != nil {
		return PopulationStatistics{}, err
	}

	stats := PopulationStatistics{
		TotalStudents:     len(students),
		TotalGradeEntries: len(grades),
		TotalECAEntries:   len(activities),
	}

	subjects := make(map[string]struct{})
	scores := make([]float64, 0, len(grades))
	for _, g := range grades {
		subjects[g.Subject] = struct{}{}
		scores = append(scores, g.Score)
	}
	stats.UniqueSubjects = len(subjects)
	if len(scores) > 0 {
		stats.AverageGrade = core.Round2(mean(scores))
		stats.MedianGrade = core.Round2(median(scores))
		stats.GradeStdDev = core.Round2(stdDev(scores))
	}

	names := make(map[string]struct{})
	for _, act := range activities {
		names[act.Name] = struct{}{}
		stats.TotalHours += act.HoursPerWeek
	}
	stats.UniqueActivities = len(names)
	if len(activities) > 0 {
		stats.AverageHoursPerWeek = core.Round2(stats.TotalHours / float64(len(activities)))
	}
	return stats, nil
}

// GradeHistogram bins every grade across all students into `buckets` equal
// intervals over [0, 100]. An empty grade collection yields a nil slice.
func (a *Analytics) GradeHistogram(buckets int) ([]HistogramBucket, error) {
	if buckets < 1 {
		return nil, core.NewArgumentError("bucket count must be at least 1")
	}
	grades, err := a.repo.QueryAllGrades()
	if err != nil {
		return nil, err
	}
	if len(grades) == 0 {
		return nil, nil
	}

	width := 100.0 / float64(buckets)
	hist := make([]HistogramBucket, buckets)
	for i := range hist {
		hist[i].Low = core.Round2(width * float64(i))
		hist[i].High = core.Round2(width * float64(i+1))
	}
	for _, g := range grades {
		idx := int(g.Score / width)
		if idx >= buckets { // a score of exactly 100 lands in the last bucket
			idx = buckets - 1
		}
		hist[idx].Count++
	}
	return hist, nil
}

// SubjectGradeGroups maps each subject to its sorted grade values across all
// students (box-plot feed).
func (a *Analytics) SubjectGradeGroups() (map[string][]float64, error) {
	grades, err := a.repo.QueryAllGrades()
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]float64)
	for _, g := range grades {
		groups[g.Subject] = append(groups[g.Subject], g.Score)
	}
	for _, scores := range groups {
		sort.Float64s(scores)
	}
	return groups, nil
}

// SubjectAverages maps each subject to its mean grade across all students,
// rounded to 2 decimal places.
func (a *Analytics) SubjectAverages() (map[string]float64, error) {
	groups, err := a.SubjectGradeGroups()
	if err != nil {
		return nil, err
	}
	averages := make(map[string]float64, len(groups))
	for subject, scores := range groups {
		averages[subject] = core.Round2(mean(scores))
	}
	return averages, nil
}

// ActivityCounts maps each activity name to its participant count (pie-chart
// feed).
func (a *Analytics) ActivityCounts() (map[string]int, error) {
	activities, err := a.repo.QueryAllActivities()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, act := range activities {
		counts[act.Name]++
	}
	return counts, nil
}

// ActivityParticipation ranks students by how many activities they are
// enrolled in, most active first; ties break by username.
func (a *Analytics) ActivityParticipation() ([]Participation, error) {
	activities, err := a.repo.QueryAllActivities()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, act := range activities {
		counts[act.Username]++
	}
	ranking := make([]Participation, 0, len(counts))
	for uname, n := range counts {
		ranking = append(ranking, Participation{Username: uname, Activities: n})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Activities != ranking[j].Activities {
			return ranking[i].Activities > ranking[j].Activities
		}
		return ranking[i].Username < ranking[j].Username
	})
	return ranking, nil
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stdDev is the population standard deviation (divide by N, not N-1).
func stdDev(vals []float64) float64 {
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)))
}
