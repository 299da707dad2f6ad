package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/models"
)

func main() {
	_ = godotenv.Load()

	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "calctl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "calctl",
		Usage:     "Free/busy queries against an iCalendar file.",
		Writer:    out,
		Flags:     []cli.Flag{&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log diagnostics to stderr."}},
		Commands:  []*cli.Command{busyCommand(), slotsCommand(), viewCommand()},
		Reader:    os.Stdin,
		ErrWriter: os.Stderr,
	}
}

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Path to the .ics file, - for stdin."},
		&cli.StringFlag{Name: "from", Required: true, Usage: "Window start, RFC3339 or YYYY-MM-DD."},
		&cli.StringFlag{Name: "to", Required: true, Usage: "Window end, RFC3339 or YYYY-MM-DD."},
		&cli.StringFlag{Name: "tz", Value: "UTC", EnvVars: []string{"CALCTL_TZ"}, Usage: "IANA zone used for bare dates and the calendar view."},
	}
}

func busyCommand() *cli.Command {
	return &cli.Command{
		Name:  "busy",
		Usage: "Print the merged busy intervals of the window.",
		Flags: windowFlags(),
		Action: func(c *cli.Context) error {
			q, err := loadQuery(c)
			if err != nil {
				return err
			}
			busy, err := availability.NewEngine(q.source).Busy(c.Context, fileScope, q.window)
			if err != nil {
				return err
			}
			return writeJSON(c.App.Writer, map[string]interface{}{
				"period":    periodOf(q.window),
				"busySlots": busy,
			})
		},
	}
}

func slotsCommand() *cli.Command {
	flags := append(windowFlags(), &cli.IntFlag{Name: "duration", Aliases: []string{"d"}, Value: 60, Usage: "Minimum slot length in minutes."})
	return &cli.Command{
		Name:  "slots",
		Usage: "Print the free slots of the window that fit the duration.",
		Flags: flags,
		Action: func(c *cli.Context) error {
			q, err := loadQuery(c)
			if err != nil {
				return err
			}
			minutes := c.Int("duration")
			finder := availability.NewSlotFinder(availability.NewEngine(q.source))
			slots, err := finder.Find(c.Context, fileScope, q.window, time.Duration(minutes)*time.Minute)
			if err != nil {
				return err
			}
			return writeJSON(c.App.Writer, map[string]interface{}{
				"period":          periodOf(q.window),
				"duration":        fmt.Sprintf("%d minutes", minutes),
				"durationMinutes": minutes,
				"freeSlots":       slots,
			})
		},
	}
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "Print events bucketed by local day and hour.",
		Flags: windowFlags(),
		Action: func(c *cli.Context) error {
			q, err := loadQuery(c)
			if err != nil {
				return err
			}
			events, err := q.source.ListEvents(c.Context, fileScope, q.window)
			if err != nil {
				return err
			}
			view, err := availability.BucketWithin(events, c.String("tz"), q.window)
			if err != nil {
				return err
			}
			return writeJSON(c.App.Writer, view)
		},
	}
}

type query struct {
	source *fileSource
	window availability.Interval
}

var fileScope = models.OrganizationScope("file")

func loadQuery(c *cli.Context) (*query, error) {
	logr := zap.NewNop()
	if c.Bool("verbose") {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		logr = dev
	}

	loc, err := availability.LoadZone(c.String("tz"))
	if err != nil {
		return nil, err
	}
	from, err := parseInstant(c.String("from"), loc)
	if err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}
	to, err := parseInstant(c.String("to"), loc)
	if err != nil {
		return nil, fmt.Errorf("--to: %w", err)
	}
	window, err := availability.NewInterval(from, to)
	if err != nil {
		return nil, err
	}

	var r io.Reader = c.App.Reader
	if path := c.String("file"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	source, err := newFileSource(r, logr)
	if err != nil {
		return nil, err
	}
	logr.Debug("calendar loaded", zap.Int("events", len(source.events)), zap.Time("from", from), zap.Time("to", to))
	return &query{source: source, window: window}, nil
}

// parseInstant reads RFC3339 timestamps or bare dates at local midnight in loc.
func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, loc)
}

func periodOf(window availability.Interval) map[string]time.Time {
	return map[string]time.Time{"startDate": window.Start, "endDate": window.End}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
