package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/fiber/cmd/fiber/internal/demo"
	"github.com/go-drift/fiber/pkg/config"
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/host/memory"
	"github.com/go-drift/fiber/pkg/idle"
)

// maxTraceSlices bounds each settle so a looping component cannot hang the
// command.
const maxTraceSlices = 100000

func init() {
	RegisterCommand(&Command{
		Name:  "trace",
		Short: "Trace a time-sliced render of the demo",
		Long: `Render the demo tree on an in-memory host, click its counter, and
report every commit: units of work, idle slices, placements, updates and
deletions, followed by the final host tree.

Flags:
  --slice N          Units of work per idle slice (default: scheduler.maxUnitsPerSlice)
  --clicks N         Number of counter clicks after mounting (default: 3)
  --format FORMAT    Output format: text, yaml or json (default: text)
  --query PATH       Print only the value at PATH in the JSON report (gjson syntax)
  --events           Include engine trace lines in the report

Examples:
  fiber trace --slice 2
  fiber trace --format yaml
  fiber trace --query commits.#.units`,
		Usage: "fiber trace [--slice N] [--clicks N] [--format text|yaml|json] [--query PATH] [--events]",
		Run:   runTrace,
	})
}

type traceOptions struct {
	slice  int
	clicks int
	format string
	query  string
	events bool
}

type traceReport struct {
	Slice   int            `yaml:"slice"`
	Commits []commitReport `yaml:"commits"`
	Events  []string       `yaml:"events,omitempty"`
	Host    string         `yaml:"host"`
}

type commitReport struct {
	Cycle      int      `yaml:"cycle"`
	Units      int      `yaml:"units"`
	Slices     int      `yaml:"slices"`
	Placements []string `yaml:"placements,omitempty"`
	Updates    int      `yaml:"updates"`
	Deletions  []string `yaml:"deletions,omitempty"`
}

func runTrace(args []string) error {
	opts, err := parseTraceArgs(args)
	if err != nil {
		return err
	}
	res, err := loadConfig()
	if err != nil {
		return err
	}
	return writeTrace(stdout, res, opts)
}

func parseTraceArgs(args []string) (traceOptions, error) {
	opts := traceOptions{slice: -1, clicks: 3, format: "text"}
	value := func(i *int, name string) (string, error) {
		arg := args[*i]
		if v, ok := strings.CutPrefix(arg, name+"="); ok {
			return v, nil
		}
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		*i++
		return args[*i], nil
	}
	number := func(i *int, name string) (int, error) {
		v, err := value(i, name)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%s must be a non-negative integer (got %q)", name, v)
		}
		return n, nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, _, _ := strings.Cut(arg, "=")
		var err error
		switch name {
		case "--slice":
			opts.slice, err = number(&i, name)
		case "--clicks":
			opts.clicks, err = number(&i, name)
		case "--format":
			opts.format, err = value(&i, name)
		case "--query":
			opts.query, err = value(&i, name)
		case "--events":
			opts.events = true
		default:
			err = fmt.Errorf("unknown flag %q", arg)
		}
		if err != nil {
			return opts, err
		}
	}

	switch opts.format {
	case "text", "yaml", "json":
	default:
		return opts, fmt.Errorf("unknown format %q (use text, yaml or json)", opts.format)
	}
	return opts, nil
}

// traceDemo mounts the demo, clicks the counter and records each commit.
func traceDemo(res *config.Resolved, opts traceOptions) (*traceReport, error) {
	h := memory.New()
	container := h.NewContainer("root")
	sched := idle.NewManual()

	report := &traceReport{}
	var failure error
	ro := rootOptions(res)
	if opts.slice >= 0 {
		ro.MaxUnitsPerSlice = opts.slice
	}
	report.Slice = ro.MaxUnitsPerSlice
	ro.OnCommit = func(rec core.CommitRecord) {
		report.Commits = append(report.Commits, newCommitReport(rec))
	}
	ro.OnError = func(err error) { failure = err }
	if opts.events {
		ro.Trace = func(format string, args ...any) {
			report.Events = append(report.Events, fmt.Sprintf(format, args...))
		}
	}

	root, err := core.NewRoot(h, container, sched, ro)
	if err != nil {
		return nil, err
	}
	settle := func() error {
		for i := 0; !root.Idle(); i++ {
			if i == maxTraceSlices {
				return fmt.Errorf("render did not settle after %d slices", maxTraceSlices)
			}
			sched.Step(idle.Unlimited)
			if failure != nil {
				return failure
			}
		}
		return nil
	}

	root.Render(demo.Element(nil))
	if err := settle(); err != nil {
		return nil, err
	}
	for i := 0; i < opts.clicks; i++ {
		button := findByID(container, "inc")
		if button == nil {
			return nil, fmt.Errorf("demo has no counter button")
		}
		h.Dispatch(button, "click", nil)
		if err := settle(); err != nil {
			return nil, err
		}
	}
	report.Host = container.String()
	return report, nil
}

func newCommitReport(rec core.CommitRecord) commitReport {
	c := commitReport{
		Cycle:   rec.Cycle,
		Units:   rec.Units,
		Slices:  rec.Slices,
		Updates: len(rec.Updates),
	}
	for _, info := range rec.Placements {
		c.Placements = append(c.Placements, info.Path)
	}
	for _, info := range rec.Deletions {
		c.Deletions = append(c.Deletions, info.Path)
	}
	return c
}

func findByID(root *memory.Node, id string) *memory.Node {
	var found *memory.Node
	root.Walk(func(n *memory.Node) bool {
		if found != nil {
			return false
		}
		if v, ok := n.Attr("id"); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found
}

func writeTrace(w io.Writer, res *config.Resolved, opts traceOptions) error {
	report, err := traceDemo(res, opts)
	if err != nil {
		return err
	}

	if opts.query != "" {
		doc, err := report.json()
		if err != nil {
			return err
		}
		result := gjson.Get(doc, opts.query)
		if !result.Exists() {
			return fmt.Errorf("query %q matched nothing", opts.query)
		}
		_, err = fmt.Fprintln(w, result.String())
		return err
	}

	switch opts.format {
	case "json":
		doc, err := report.json()
		if err != nil {
			return err
		}
		_, err = w.Write(pretty.Pretty([]byte(doc)))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return report.text(w)
	}
}

func (r *traceReport) text(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "slice=%d\n", r.Slice)
	for _, c := range r.Commits {
		fmt.Fprintf(&sb, "commit %d: units=%d slices=%d updates=%d\n", c.Cycle, c.Units, c.Slices, c.Updates)
		for _, p := range c.Placements {
			fmt.Fprintf(&sb, "  + %s\n", p)
		}
		for _, d := range c.Deletions {
			fmt.Fprintf(&sb, "  - %s\n", d)
		}
	}
	for _, e := range r.Events {
		fmt.Fprintf(&sb, "event: %s\n", e)
	}
	fmt.Fprintf(&sb, "host: %s\n", r.Host)
	_, err := io.WriteString(w, sb.String())
	return err
}

// json builds the report as a JSON document.
func (r *traceReport) json() (string, error) {
	doc := "{}"
	set := func(path string, value any) error {
		var err error
		doc, err = sjson.Set(doc, path, value)
		return err
	}
	setRaw := func(path, raw string) error {
		var err error
		doc, err = sjson.SetRaw(doc, path, raw)
		return err
	}

	if err := set("slice", r.Slice); err != nil {
		return "", err
	}
	if err := setRaw("commits", "[]"); err != nil {
		return "", err
	}
	for i, c := range r.Commits {
		if err := setRaw("commits.-1", "{}"); err != nil {
			return "", err
		}
		prefix := "commits." + strconv.Itoa(i) + "."
		fields := []struct {
			key   string
			value any
		}{
			{"cycle", c.Cycle},
			{"units", c.Units},
			{"slices", c.Slices},
			{"updates", c.Updates},
			{"placements", nonNil(c.Placements)},
			{"deletions", nonNil(c.Deletions)},
		}
		for _, f := range fields {
			if err := set(prefix+f.key, f.value); err != nil {
				return "", err
			}
		}
	}
	if len(r.Events) > 0 {
		if err := set("events", r.Events); err != nil {
			return "", err
		}
	}
	if err := set("host", r.Host); err != nil {
		return "", err
	}
	return doc, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
