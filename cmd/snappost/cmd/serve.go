package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/spf13/cobra"

	"github.com/snapcnc/snappost/coord"
	"github.com/snapcnc/snappost/export"
	"github.com/snapcnc/snappost/machine"
	"github.com/snapcnc/snappost/toolpath"
)

var serveFlags struct {
	addr         string
	machinesFile string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the export HTTP service",
	Long: `Serves the exporter over HTTP. POST a toolpath job document to
/api/export with the export flags as query parameters; the response
carries the program, diagnostics and travel extents as JSON. Emission
progress streams on /events/export as server-sent events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", ":9091", "address to listen on")
	f.StringVar(&serveFlags.machinesFile, "machines-file", "", "extra machine profiles (TOML)")
}

func runServe(cmd *cobra.Command, args []string) error {
	reg := machine.NewRegistry()
	if serveFlags.machinesFile != "" {
		if err := reg.MergeFile(serveFlags.machinesFile); err != nil {
			return err
		}
	}
	a := newAPI(reg)
	defer a.sse.Shutdown()

	slog.Info("listening", "addr", serveFlags.addr)
	return http.ListenAndServe(serveFlags.addr, a)
}

type api struct {
	http.Handler
	reg *machine.Registry
	sse *sse.Server
}

func newAPI(reg *machine.Registry) *api {
	mux := http.NewServeMux()

	a := &api{
		Handler: mux,
		reg:     reg,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(io.Discard, "", 0),
		}),
	}

	mux.HandleFunc("/api/export", a.export)
	mux.HandleFunc("/api/machines", a.machines)
	mux.Handle("/events/", a.sse)

	return a
}

func (a *api) export(w http.ResponseWriter, req *http.Request) {
	if req.Method != "POST" {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	job, err := toolpath.Load(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cfg, err := queryConfig(req.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := export.New(&cfg, export.Options{
		Registry: a.reg,
		Logger:   slog.Default(),
		Progress: func(stage string) {
			a.sse.SendMessage("/events/export", sse.SimpleMessage(stage))
		},
	}).Export(job)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (a *api) machines(w http.ResponseWriter, req *http.Request) {
	if req.Method != "GET" {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	out := struct {
		Machines  map[string]machine.Profile  `json:"machines"`
		Toolheads map[string]machine.Toolhead `json:"toolheads"`
	}{
		Machines:  map[string]machine.Profile{},
		Toolheads: map[string]machine.Toolhead{},
	}
	for _, key := range a.reg.MachineKeys() {
		p, _ := a.reg.Machine(key)
		out.Machines[key] = p
	}
	for _, key := range a.reg.ToolheadKeys() {
		th, _ := a.reg.Toolhead(key)
		out.Toolheads[key] = th
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// queryConfig builds an export config from request query parameters.
// Parameter names match the export command's flags; absent parameters
// keep their defaults. The thumbnail stays off, the service has no
// image source.
func queryConfig(q url.Values) (export.Config, error) {
	cfg := export.DefaultConfig()
	cfg.Thumbnail = false

	var err error
	boolP := func(name string, def bool) bool {
		v := q.Get(name)
		if err != nil || v == "" {
			return def
		}
		var b bool
		if b, err = strconv.ParseBool(v); err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			return def
		}
		return b
	}
	intP := func(name string, def int) int {
		v := q.Get(name)
		if err != nil || v == "" {
			return def
		}
		var n int
		if n, err = strconv.Atoi(v); err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			return def
		}
		return n
	}
	floatP := func(name string, def float64) float64 {
		v := q.Get(name)
		if err != nil || v == "" {
			return def
		}
		var f float64
		if f, err = strconv.ParseFloat(v, 64); err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			return def
		}
		return f
	}
	strP := func(name, def string) string {
		if v := q.Get(name); v != "" {
			return v
		}
		return def
	}

	cfg.Header = boolP("header", cfg.Header)
	cfg.Comments = boolP("comments", cfg.Comments)
	cfg.LineNumbers = boolP("line-numbers", cfg.LineNumbers)
	cfg.LineStart = intP("line-start", cfg.LineStart)
	cfg.LineIncrement = intP("line-increment", cfg.LineIncrement)
	cfg.RemoveDuplicates = boolP("remove-duplicates", cfg.RemoveDuplicates)
	cfg.Precision = intP("precision", cfg.Precision)
	cfg.Spacer = strP("spacer", cfg.Spacer)
	cfg.TranslateDrill = boolP("translate-drill-cycles", cfg.TranslateDrill)
	cfg.ToolChange = boolP("tool-change", cfg.ToolChange)
	cfg.ToolNumber = boolP("tool-number", cfg.ToolNumber)
	cfg.SpindleWait = floatP("spindle-wait", cfg.SpindleWait)
	cfg.SpindlePercent = !boolP("spindle-rpm", false)
	cfg.BoundsCheck = boolP("boundaries-check", cfg.BoundsCheck)

	cfg.Preamble = strP("preamble", cfg.Preamble)
	cfg.Postamble = strP("postamble", cfg.Postamble)
	cfg.PreOperation = strP("pre-operation", cfg.PreOperation)
	cfg.PostOperation = strP("post-operation", cfg.PostOperation)
	cfg.ToolChangeGcode = strP("tool-change-gcode", cfg.ToolChangeGcode)
	cfg.Pause = strP("pause", cfg.Pause)
	cfg.Machine = strP("machine", cfg.Machine)
	cfg.Toolhead = strP("toolhead", cfg.Toolhead)
	cfg.ExtraCommands = q["commands"]

	if err != nil {
		return cfg, err
	}

	if v := q.Get("units"); v != "" {
		if cfg.Units, err = parseUnits(v); err != nil {
			return cfg, err
		}
	}
	if v := q.Get("separator"); v != "" {
		if cfg.Separator, err = parseSeparator(v); err != nil {
			return cfg, err
		}
	}
	if v := q.Get("drill-retract-mode"); v != "" {
		if cfg.DrillRetract, err = parseRetract(v); err != nil {
			return cfg, err
		}
	}
	if v := q.Get("final-position"); v != "" {
		p, err := coord.Parse(v)
		if err != nil {
			return cfg, fmt.Errorf("final-position: %w", err)
		}
		cfg.FinalPosition = &p
	}
	if v := q.Get("boundaries"); v != "" {
		env, err := parseEnvelope(v)
		if err != nil {
			return cfg, fmt.Errorf("boundaries: %w", err)
		}
		cfg.Boundaries = env
	}
	if v := q.Get("spindle-speeds"); v != "" {
		th, err := parseSpindleRange(v)
		if err != nil {
			return cfg, err
		}
		cfg.SpindleSpeeds = th
	}
	switch symbols := q["comment-symbols"]; len(symbols) {
	case 0:
	case 1:
		cfg.CommentSymbols = [2]string{symbols[0], ""}
	case 2:
		cfg.CommentSymbols = [2]string{symbols[0], symbols[1]}
	default:
		return cfg, fmt.Errorf("comment-symbols takes at most two values")
	}

	return cfg, nil
}
