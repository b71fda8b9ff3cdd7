package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"climb-pacer/internal/config"
	"climb-pacer/internal/export"
	"climb-pacer/internal/pacing"
	"climb-pacer/internal/service"
	"climb-pacer/internal/store"
)

func runPlan(ctx context.Context, cfg *config.Config, db *store.DB, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	source := fs.String("course", cfg.Course.Source, "built-in course name, .gpx/.fit file, or strava:<segment id>")
	fs.Float64("ftp", 0, "FTP in watts (default: stored profile)")
	fs.Float64("wprime", 0, "W′ in joules (default: stored profile)")
	fs.Float64("weight", 0, "body mass in kg (default: stored profile)")
	csvPath := fs.String("csv", "", "write the plan as CSV to this file")
	parquetPath := fs.String("parquet", "", "write the plan as Parquet to this file")
	pngPath := fs.String("png", "", "write power and W′ charts to this PNG file")
	save := fs.Bool("save", false, "save the plan to history")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := log.New(os.Stderr, "climb-pacer: ", 0)
	plans, err := newPlanService(ctx, cfg, db, logger, *source)
	if err != nil {
		return err
	}
	c, err := plans.ResolveCourse(ctx, *source)
	if err != nil {
		return fmt.Errorf("loading course: %w", err)
	}

	stored, _, err := service.NewProfileService(db, cfg.Rider).Rider()
	if err != nil {
		return err
	}
	rider, err := applyRiderFlags(fs, stored)
	if err != nil {
		return err
	}

	result, err := plans.Compute(rider, c)
	if err != nil {
		return err
	}

	printPlan(os.Stdout, service.NewPlanDisplay(result, cfg.UsesMiles()))

	exports := []struct {
		path  string
		write func(io.Writer) error
	}{
		{*csvPath, func(w io.Writer) error { return export.WriteCSV(w, result.Plan) }},
		{*parquetPath, func(w io.Writer) error { return export.WriteParquet(w, c.Name, result.Plan) }},
		{*pngPath, func(w io.Writer) error { return export.WriteCharts(w, c.Name, rider, result.Plan) }},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := writeFile(e.path, e.write); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", e.path)
	}

	if *save {
		id, err := plans.Save(result)
		if err != nil {
			return err
		}
		fmt.Printf("Saved plan %s\n", id)
	}

	// Infeasible plans are printed for diagnosis but still fail the command
	return result.Infeasible
}

// applyRiderFlags overrides rider fields with the -ftp, -wprime and -weight
// flags that were given. Given values must be positive and finite.
func applyRiderFlags(fs *flag.FlagSet, rider pacing.RiderProfile) (pacing.RiderProfile, error) {
	fields := map[string]*float64{
		"ftp":    &rider.FTP,
		"wprime": &rider.WPrime,
		"weight": &rider.BodyMass,
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		field, ok := fields[f.Name]
		if !ok || err != nil {
			return
		}
		v := f.Value.(flag.Getter).Get().(float64)
		if !(v > 0) || math.IsInf(v, 0) {
			err = fmt.Errorf("%w: -%s must be a positive number, got %v", pacing.ErrInvalidInput, f.Name, v)
			return
		}
		*field = v
	})
	return rider, err
}

func runHistory(cfg *config.Config, db *store.DB, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", service.DefaultHistoryLimit, "number of plans to list")
	show := fs.String("show", "", "print the saved plan with this id")
	del := fs.String("delete", "", "delete the saved plan with this id")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	plans := service.NewPlanService(db, cfg, log.New(os.Stderr, "climb-pacer: ", 0))

	switch {
	case *show != "":
		saved, err := plans.Get(*show)
		if err != nil {
			return err
		}
		printPlan(os.Stdout, service.NewSavedPlanDisplay(saved, cfg.UsesMiles()))
		return nil

	case *del != "":
		if err := plans.Delete(*del); err != nil {
			return err
		}
		fmt.Printf("Deleted plan %s\n", *del)
		return nil
	}

	summaries, err := plans.History(*limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No saved plans yet. Run 'climb-pacer plan -save' to save one.")
		return nil
	}

	fmt.Printf("%-36s  %-24s  %-16s  %-8s  %s\n", "ID", "Course", "Saved", "Time", "Intensity")
	for _, r := range service.NewHistoryRows(summaries, time.Now()) {
		line := fmt.Sprintf("%-36s  %-24s  %-16s  %-8s  %s", r.ID, r.Course, r.Saved, r.TotalTime, r.Intensity)
		if !r.Feasible {
			line += "  (infeasible)"
		}
		fmt.Println(line)
	}
	return nil
}

func printPlan(w io.Writer, d service.PlanDisplay) {
	fmt.Fprintf(w, "%s: %s, %s climbing, %s average\n", d.CourseName, d.Distance, d.Climbing, d.AverageGrade)
	fmt.Fprintf(w, "Rider:       %s\n", d.Rider)
	fmt.Fprintf(w, "Finish time: %s\n", d.TotalTime)
	fmt.Fprintf(w, "Intensity:   %s\n", d.Intensity)
	fmt.Fprintf(w, "Avg power:   %s   Avg speed: %s\n", d.AveragePower, d.AverageSpeed)
	fmt.Fprintf(w, "W′ lowest:   %s   final: %s\n", d.MinBalance, d.FinalBalance)
	if d.Warning != "" {
		fmt.Fprintf(w, "\nWARNING: %s\n", d.Warning)
	}

	fmt.Fprintf(w, "\n%3s  %8s  %6s  %6s  %10s  %6s  %7s  %s\n",
		"#", "Dist", "Grade", "Power", "Speed", "Time", "Elapsed", "W′")
	for _, r := range d.Rows {
		mark := ""
		if r.Clamped {
			mark = " *"
		}
		fmt.Fprintf(w, "%3d  %8s  %6s  %6s  %10s  %6s  %7s  %s%s\n",
			r.Number, r.Distance, r.Grade, r.Power, r.Speed, r.Time, r.Elapsed, r.WBalance, mark)
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
