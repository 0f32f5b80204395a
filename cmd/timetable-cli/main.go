package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-scheduler/internal/dto"
	"github.com/noah-isme/timetable-scheduler/internal/loader"
	"github.com/noah-isme/timetable-scheduler/internal/models"
	"github.com/noah-isme/timetable-scheduler/internal/service"
)

type options struct {
	input           string
	csvDir          string
	termStart       string
	weeks           int
	attempts        int
	randomize       bool
	workers         int
	seed            int64
	maxNodes        int
	timeBudget      time.Duration
	optimize        bool
	outputCSV       string
	outputPDF       string
	pdfByInstructor bool
	verbose         bool

	issueToken bool
	secret     string
	userID     string
	role       string
	tokenTTL   time.Duration
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("timetable-cli", pflag.ContinueOnError)
	fs.StringVar(&opts.input, "input", "", "JSON catalog file")
	fs.StringVar(&opts.csvDir, "csv-dir", "", "directory with rooms.csv, instructors.csv, subjects.csv")
	fs.StringVar(&opts.termStart, "term-start", "", "term start date (YYYY-MM-DD) for CSV catalogs")
	fs.IntVar(&opts.weeks, "weeks", 1, "number of weeks for CSV catalogs")
	fs.IntVar(&opts.attempts, "attempts", 1000, "maximum generation attempts")
	fs.BoolVar(&opts.randomize, "randomize", true, "shuffle candidate order between attempts")
	fs.IntVar(&opts.workers, "workers", 1, "parallel attempt workers")
	fs.Int64Var(&opts.seed, "seed", 0, "shuffle seed, 0 picks one from the clock")
	fs.IntVar(&opts.maxNodes, "max-nodes", 200000, "search nodes per attempt")
	fs.DurationVar(&opts.timeBudget, "time-budget", 30*time.Second, "wall-clock budget across attempts")
	fs.BoolVar(&opts.optimize, "optimize", false, "compact instructor gaps after generation")
	fs.StringVar(&opts.outputCSV, "output-csv", "", "write the timetable as CSV")
	fs.StringVar(&opts.outputPDF, "output-pdf", "", "write the timetable as PDF")
	fs.BoolVar(&opts.pdfByInstructor, "pdf-by-instructor", false, "group exports by instructor instead of week")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log scheduler progress")

	fs.BoolVar(&opts.issueToken, "issue-token", false, "print a signed API token and exit")
	fs.StringVar(&opts.secret, "secret", os.Getenv("JWT_SECRET"), "token signing secret")
	fs.StringVar(&opts.userID, "user", "", "token subject")
	fs.StringVar(&opts.role, "role", string(models.RolePlanner), "token role (ADMIN, PLANNER, VIEWER)")
	fs.DurationVar(&opts.tokenTTL, "token-ttl", 24*time.Hour, "token lifetime")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.issueToken {
		return opts, nil
	}
	if (opts.input == "") == (opts.csvDir == "") {
		return nil, fmt.Errorf("exactly one of --input or --csv-dir is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.issueToken {
		return issueToken(opts, out)
	}

	logr := zap.NewNop()
	if opts.verbose {
		if logr, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logr.Sync() //nolint:errcheck
	}

	result, err := loadCatalog(opts)
	if err != nil {
		return err
	}

	svc := service.NewTimetableService(
		service.NewCatalogStore(result.Catalog, result.Fixed),
		nil, nil, nil, nil,
		service.NewMetricsService(),
		nil,
		logr,
		service.TimetableServiceConfig{Defaults: service.GenerateOptions{MaxAttempts: opts.attempts}},
	)

	randomize := opts.randomize
	resp, err := svc.Generate(ctx, dto.GenerateTimetableRequest{
		MaxAttempts:       opts.attempts,
		Randomize:         &randomize,
		Seed:              opts.seed,
		Workers:           opts.workers,
		MaxNodes:          opts.maxNodes,
		TimeBudgetSeconds: int(opts.timeBudget.Seconds()),
		Optimize:          opts.optimize,
	})
	if err != nil {
		return err
	}

	printSummary(out, resp)

	groupBy := "week"
	if opts.pdfByInstructor {
		groupBy = "instructor"
	}
	for format, path := range map[string]string{"csv": opts.outputCSV, "pdf": opts.outputPDF} {
		if path == "" {
			continue
		}
		file, err := svc.Export(ctx, resp.ID, dto.ExportQuery{Format: format, GroupBy: groupBy})
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	return nil
}

func loadCatalog(opts *options) (*loader.Result, error) {
	loadOpts := loader.Options{Weeks: opts.weeks}
	if opts.termStart != "" {
		date, err := models.ParseDate(opts.termStart)
		if err != nil {
			return nil, fmt.Errorf("invalid --term-start: %w", err)
		}
		start := date.Time()
		loadOpts.TermStart = &start
	}
	if opts.input != "" {
		return loader.LoadJSONFile(opts.input, loadOpts)
	}
	return loader.LoadCSVDir(opts.csvDir, loadOpts)
}

func issueToken(opts *options, out io.Writer) error {
	role := models.UserRole(strings.ToUpper(opts.role))
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", opts.role)
	}
	if opts.userID == "" || opts.secret == "" {
		return fmt.Errorf("--user and --secret (or JWT_SECRET) are required")
	}
	tokens := service.NewTokenService(service.TokenConfig{Secret: opts.secret, Expiry: opts.tokenTTL}, nil)
	token, expiresAt, err := tokens.Issue(opts.userID, opts.userID, role)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
	return nil
}

func printSummary(out io.Writer, resp *dto.TimetableResponse) {
	status := "complete"
	if !resp.Complete {
		status = "partial"
	}
	fmt.Fprintf(out, "timetable %s: %s, %d/%d sessions placed in %d attempt(s), %dms\n",
		resp.ID, status, resp.Placed, resp.Requested, resp.Attempts, resp.DurationMs)
	if resp.Optimization != nil {
		fmt.Fprintf(out, "optimization: gap minutes %d -> %d\n", resp.Optimization.GapMinutesBefore, resp.Optimization.GapMinutesAfter)
	}

	sessions := append([]dto.SessionView(nil), resp.Sessions...)
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if dayIndex(a.Day) != dayIndex(b.Day) {
			return dayIndex(a.Day) < dayIndex(b.Day)
		}
		return a.StartTime < b.StartTime
	})

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	week, day := "", ""
	for _, session := range sessions {
		weekLabel := fmt.Sprintf("%d-W%02d", session.Year, session.Week)
		if weekLabel != week {
			fmt.Fprintf(tw, "\nWeek %s\n", weekLabel)
			week, day = weekLabel, ""
		}
		if session.Day != day {
			label := session.Day
			if session.Date != "" {
				label += " " + session.Date
			}
			fmt.Fprintf(tw, "  %s\n", label)
			day = session.Day
		}
		fixed := ""
		if session.Fixed {
			fixed = "fixed"
		}
		fmt.Fprintf(tw, "    %s-%s\t%s\t%s\t%s\t%s\n",
			session.StartTime, session.EndTime, session.SubjectName, session.RoomName,
			strings.Join(session.InstructorIDs, ", "), fixed)
	}
	_ = tw.Flush()

	if len(resp.Deficits) == 0 {
		return
	}
	fmt.Fprintln(out, "\nunplaced sessions:")
	subjects := make([]string, 0, len(resp.Deficits))
	for subject := range resp.Deficits {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	for _, subject := range subjects {
		fmt.Fprintf(out, "  %s: %d\n", subject, resp.Deficits[subject])
	}
}

func dayIndex(day string) int {
	parsed, err := models.ParseDayOfWeek(day)
	if err != nil {
		return 7
	}
	return int(parsed)
}
