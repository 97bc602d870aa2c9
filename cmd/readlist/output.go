package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/phrazzld/readlist-api/internal/service"
)

func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printItems(out io.Writer, items []service.ReadingItemDTO) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "No reading items")
		return err
	}
	w := newTabWriter(out)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tSTATUS\tPRIORITY\tPROGRESS\tTAGS")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Title, item.Author, item.Status, item.Priority,
			progressText(item.Progress), joinOrDash(item.Tags))
	}
	return w.Flush()
}

func printItem(out io.Writer, item *service.ReadingItemDTO) error {
	w := newTabWriter(out)
	fmt.Fprintf(w, "ID:\t%s\n", item.ID)
	fmt.Fprintf(w, "Title:\t%s\n", item.Title)
	fmt.Fprintf(w, "Author:\t%s\n", item.Author)
	fmt.Fprintf(w, "Status:\t%s\n", item.Status)
	fmt.Fprintf(w, "Priority:\t%s\n", item.Priority)
	fmt.Fprintf(w, "Progress:\t%s\n", progressText(item.Progress))
	fmt.Fprintf(w, "Tags:\t%s\n", joinOrDash(item.Tags))
	if item.Rating != nil {
		fmt.Fprintf(w, "Rating:\t%d/5\n", *item.Rating)
	}
	if item.StartDate != nil {
		fmt.Fprintf(w, "Started:\t%s\n", *item.StartDate)
	}
	if item.FinishDate != nil {
		fmt.Fprintf(w, "Finished:\t%s\n", *item.FinishDate)
	}
	if item.Notes != nil {
		fmt.Fprintf(w, "Notes:\t%s\n", *item.Notes)
	}
	return w.Flush()
}

func printStatistics(out io.Writer, stats *service.StatisticsDTO) error {
	w := newTabWriter(out)
	fmt.Fprintf(w, "Total:\t%d\n", stats.Total)
	fmt.Fprintf(w, "To read:\t%d\n", stats.ToRead)
	fmt.Fprintf(w, "Reading:\t%d\n", stats.Reading)
	fmt.Fprintf(w, "Finished:\t%d\n", stats.Finished)
	fmt.Fprintf(w, "Finished this year:\t%d\n", stats.FinishedThisYear)
	fmt.Fprintf(w, "Average rating:\t%.1f\n", stats.AverageRating)
	fmt.Fprintf(w, "Books per month:\t%.1f\n", stats.ReadingVelocity)
	fmt.Fprintf(w, "Current streak:\t%d days\n", stats.CurrentStreak)
	fmt.Fprintf(w, "Top tags:\t%s\n", joinOrDash(stats.MostReadTags))
	fmt.Fprintf(w, "Favorite authors:\t%s\n", joinOrDash(stats.FavoriteAuthors))
	return w.Flush()
}

func printGoals(out io.Writer, goals *service.ReadingGoalsDTO) error {
	w := newTabWriter(out)
	fmt.Fprintf(w, "Yearly goal:\t%d\n", goals.YearlyGoal)
	fmt.Fprintf(w, "Monthly goal:\t%d\n", goals.MonthlyGoal)
	fmt.Fprintf(w, "Finished so far:\t%d\n", goals.CurrentProgress)
	fmt.Fprintf(w, "Expected by now:\t%.1f\n", goals.ExpectedProgress)
	track := "behind"
	if goals.IsOnTrack {
		track = "on track"
	}
	fmt.Fprintf(w, "Pace:\t%s\n", track)
	return w.Flush()
}

func progressText(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *p)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
