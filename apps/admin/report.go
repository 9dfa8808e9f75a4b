package main

import (
	"fmt"
	"sort"
)

const histogramBuckets = 10

// report prints the population-wide analytics: headline statistics, per-subject
// averages, the grade distribution and activity participation.
func (cli *commandLine) report() error {
	stats, err := cli.analytics.PopulationStatistics()
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Population")
	fmt.Fprintf(cli.out, "  students: %d\n", stats.TotalStudents)
	fmt.Fprintf(cli.out, "  grade entries: %d (subjects: %d)\n", stats.TotalGradeEntries, stats.UniqueSubjects)
	fmt.Fprintf(cli.out, "  eca entries: %d (activities: %d)\n", stats.TotalECAEntries, stats.UniqueActivities)
	fmt.Fprintf(cli.out, "  grade mean/median/stddev: %.2f / %.2f / %.2f\n", stats.AverageGrade, stats.MedianGrade, stats.GradeStdDev)
	fmt.Fprintf(cli.out, "  eca hours total/avg: %.2f / %.2f\n", stats.TotalHours, stats.AverageHoursPerWeek)

	averages, err := cli.analytics.SubjectAverages()
	if err != nil {
		return err
	}
	if len(averages) > 0 {
		fmt.Fprintln(cli.out, "Subject averages")
		subjects := make([]string, 0, len(averages))
		for subject := range averages {
			subjects = append(subjects, subject)
		}
		sort.Strings(subjects)
		for _, subject := range subjects {
			fmt.Fprintf(cli.out, "  %s: %.2f\n", subject, averages[subject])
		}
	}

	hist, err := cli.analytics.GradeHistogram(histogramBuckets)
	if err != nil {
		return err
	}
	if len(hist) > 0 {
		fmt.Fprintln(cli.out, "Grade distribution")
		for _, bucket := range hist {
			fmt.Fprintf(cli.out, "  [%3.0f-%3.0f): %d\n", bucket.Low, bucket.High, bucket.Count)
		}
	}

	counts, err := cli.analytics.ActivityCounts()
	if err != nil {
		return err
	}
	if len(counts) > 0 {
		fmt.Fprintln(cli.out, "Activity participation")
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cli.out, "  %s: %d\n", name, counts[name])
		}
	}

	ranking, err := cli.analytics.ActivityParticipation()
	if err != nil {
		return err
	}
	if len(ranking) > 0 {
		fmt.Fprintln(cli.out, "Most active students")
		for _, p := range ranking {
			fmt.Fprintf(cli.out, "  %s: %d\n", p.Username, p.Activities)
		}
	}
	return nil
}
