package export

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/snapcnc/snappost/diag"
	"github.com/snapcnc/snappost/gcode"
	"github.com/snapcnc/snappost/machine"
	"github.com/snapcnc/snappost/toolpath"
	"github.com/snapcnc/snappost/vm"
)

// Thumbnailer produces the preview image embedded in the header.
type Thumbnailer interface {
	Thumbnail(job *toolpath.Job) ([]byte, error)
}

// Options are the collaborators of one export. All fields are
// optional.
type Options struct {
	// Registry resolves machine and toolhead names; nil uses the
	// built-in profiles.
	Registry *machine.Registry
	// Logger receives diagnostics as they happen, in addition to the
	// collected Result.Diagnostics.
	Logger      *slog.Logger
	Thumbnailer Thumbnailer
	// Progress is called as each emission phase starts.
	Progress func(stage string)
	// Now overrides the header timestamp clock.
	Now func() time.Time
}

// Violation is one axis whose travel exceeds the machine envelope.
type Violation struct {
	Axis  string  `json:"axis"`
	Span  float64 `json:"span"`
	Limit float64 `json:"limit"`
}

// Result is the outcome of an export. Diagnostics are always worth
// checking: the run absorbs everything short of failing to produce
// text.
type Result struct {
	Gcode       string       `json:"gcode"`
	Diagnostics []diag.Entry `json:"diagnostics"`
	Extents     vm.Extents   `json:"extents"`
	Violations  []Violation  `json:"violations,omitempty"`
}

// Exporter emits one job as a G-code program. An Exporter is
// single-use: it accumulates program state during Export, so create
// a fresh one per run.
type Exporter struct {
	cfg  *Config
	opts Options

	rec    *diag.Recorder
	log    *slog.Logger
	format *gcode.Formatter
	prog   *gcode.Program

	allowed map[string]bool
	job     *toolpath.Job
	tool    string
}

func New(cfg *Config, opts Options) *Exporter {
	if opts.Registry == nil {
		opts.Registry = machine.NewRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var next slog.Handler
	if opts.Logger != nil {
		next = opts.Logger.Handler()
	}
	rec := diag.NewRecorder(next)

	e := &Exporter{
		cfg:  cfg,
		opts: opts,
		rec:  rec,
		log:  rec.Logger(),
		prog: gcode.NewProgram(cfg.RemoveDuplicates),
	}
	e.prog.SetRetractMode(cfg.DrillRetract)

	e.allowed = make(map[string]bool, len(DefaultCommands)+len(cfg.ExtraCommands))
	for _, name := range DefaultCommands {
		e.allowed[name] = true
	}
	for _, name := range cfg.ExtraCommands {
		e.allowed[strings.ToUpper(name)] = true
	}

	th := e.resolveToolhead()
	e.format = &gcode.Formatter{
		Units:          cfg.Units,
		Precision:      cfg.Precision,
		Spacer:         cfg.Spacer,
		CommentSymbols: cfg.CommentSymbols,
		SpindlePercent: cfg.SpindlePercent,
		SpindleMin:     th.MinRPM,
		SpindleMax:     th.MaxRPM,
		Log:            e.log,
	}
	return e
}

func (e *Exporter) resolveToolhead() machine.Toolhead {
	if e.cfg.SpindleSpeeds != nil {
		return *e.cfg.SpindleSpeeds
	}
	name := e.cfg.Toolhead
	if name == "" {
		name = machine.DefaultToolhead
	}
	if th, ok := e.opts.Registry.Toolhead(name); ok {
		return th
	}
	e.log.Warn("unknown toolhead, using default", "toolhead", name, "default", machine.DefaultToolhead)
	th, _ := e.opts.Registry.Toolhead(machine.DefaultToolhead)
	return th
}

// Export runs the full emission pipeline and never fails: problems
// degrade into diagnostics on the Result.
func (e *Exporter) Export(job *toolpath.Job) *Result {
	e.job = job

	e.progress("header")
	e.header()
	e.progress("preamble")
	e.preamble()
	e.setup()

	if job != nil {
		for _, op := range job.Operations {
			e.progress("operation: " + op.Label)
			e.operation(op)
		}
	}

	e.finalPosition()
	e.progress("postamble")
	e.postamble()

	ext := vm.Replay(e.prog)
	var violations []Violation
	if e.cfg.BoundsCheck {
		e.progress("boundary check")
		violations = e.checkBounds(ext)
	}

	return &Result{
		Gcode:       e.prog.Render(e.format, e.renderOptions()),
		Diagnostics: e.rec.Entries(),
		Extents:     ext,
		Violations:  violations,
	}
}

func (e *Exporter) progress(stage string) {
	if e.opts.Progress != nil {
		e.opts.Progress(stage)
	}
}

func (e *Exporter) renderOptions() gcode.RenderOptions {
	return gcode.RenderOptions{
		Comments:      e.cfg.Comments,
		Headers:       e.cfg.Header,
		LineNumbers:   e.cfg.LineNumbers,
		LineStart:     e.cfg.LineStart,
		LineIncrement: e.cfg.LineIncrement,
		Separator:     e.cfg.Separator,
	}
}

func (e *Exporter) header() {
	add := func(s string) { e.prog.Append(gcode.HeaderLine(s)) }
	add("Header Start")
	add("header_type: cnc")
	add("machine: " + e.machineName())
	add("Post Processor: snappost")
	add("Cam File: " + e.camFile())
	add("Output Time: " + e.opts.Now().Format("2006-01-02 15:04:05"))
	e.thumbnail()
	add("Header End")
}

func (e *Exporter) machineName() string {
	if e.cfg.Machine == "" {
		return "Snapmaker"
	}
	if p, ok := e.opts.Registry.Machine(e.cfg.Machine); ok {
		return p.Name
	}
	return e.cfg.Machine
}

func (e *Exporter) camFile() string {
	if e.job == nil || e.job.Source == "" {
		return "unknown"
	}
	return e.job.Source
}

func (e *Exporter) thumbnail() {
	deactivated := func() { e.prog.Append(gcode.HeaderLine("thumbnail: deactivated.")) }
	if !e.cfg.Thumbnail {
		deactivated()
		return
	}
	if e.opts.Thumbnailer == nil || e.job == nil {
		e.log.Error("no thumbnail source available")
		deactivated()
		return
	}
	png, err := e.opts.Thumbnailer.Thumbnail(e.job)
	if err != nil {
		e.log.Error("thumbnail capture failed", "error", err)
		deactivated()
		return
	}
	if len(png) == 0 {
		e.log.Error("thumbnail capture returned no image")
		deactivated()
		return
	}
	e.prog.Append(gcode.HeaderLine("thumbnail: data:image/png;base64," + base64.StdEncoding.EncodeToString(png)))
}

func (e *Exporter) preamble() {
	e.prog.Append(gcode.CommentLine("PREAMBLE"))
	e.rawLines(e.cfg.Preamble)
}

func (e *Exporter) setup() {
	e.prog.Append(gcode.CommentLine("CONFIGURATION"))
	e.prog.AppendInstruction(gcode.MustInstruction("G90", nil))
	e.prog.AppendInstruction(gcode.MustInstruction(e.cfg.Units.Selector(), nil))
	e.prog.AppendInstruction(gcode.MustInstruction("G17", nil))
}

func (e *Exporter) postamble() {
	e.prog.Append(gcode.CommentLine("POSTAMBLE"))
	e.rawLines(e.cfg.Postamble)
}

// rawLines appends passthrough text line by line.
func (e *Exporter) rawLines(text string) {
	if text == "" {
		return
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		e.prog.Append(gcode.RawLine(line))
	}
}

func (e *Exporter) operation(op *toolpath.Operation) {
	if !op.Active {
		e.log.Warn("operation inactive, skipped", "operation", op.Label)
		return
	}

	e.toolChange(op)
	if e.cfg.ToolNumber && op.Tool != nil {
		e.prog.Append(gcode.RawLine(fmt.Sprintf("T%02d", op.Tool.Number)))
	}

	e.prog.Append(gcode.CommentLine("OPERATION: " + op.Label))
	e.rawLines(e.cfg.PreOperation)

	coolant := op.Coolant != toolpath.CoolantNone
	if coolant {
		e.coolantOn(op.Coolant)
	}

	e.walk(op)

	e.prog.Append(gcode.CommentLine("END OF OPERATION: " + op.Label))
	e.rawLines(e.cfg.PostOperation)
	if coolant {
		e.coolantOff(op.Coolant)
	}
}

// toolChange pauses for a new tool when the operation's tool differs
// from the active one. The first tool is assumed already mounted; the
// comment names the tool being removed.
func (e *Exporter) toolChange(op *toolpath.Operation) {
	if op.Tool == nil || e.tool == op.Tool.Name {
		return
	}
	prev := e.tool
	e.tool = op.Tool.Name
	if prev == "" || !e.cfg.ToolChange {
		return
	}
	e.prog.Append(gcode.CommentLine("TOOL CHANGE: " + prev))
	if e.cfg.ToolChangeGcode != "" {
		e.rawLines(e.cfg.ToolChangeGcode)
		return
	}
	e.prog.AppendInstruction(gcode.MustInstruction(e.cfg.Pause, nil))
}

func (e *Exporter) coolantOn(mode toolpath.CoolantMode) {
	e.prog.Append(gcode.CommentLine("COOLANT ON: " + string(mode)))
	name := "M8"
	if mode == toolpath.CoolantMist {
		name = "M7"
	}
	e.prog.AppendInstruction(gcode.MustInstruction(name, nil))
}

func (e *Exporter) coolantOff(mode toolpath.CoolantMode) {
	e.prog.Append(gcode.CommentLine("COOLANT OFF: " + string(mode)))
	e.prog.AppendInstruction(gcode.MustInstruction("M9", nil))
}

// walk emits an operation's instructions, recursing into compound
// groups.
func (e *Exporter) walk(op *toolpath.Operation) {
	if op.Compound() {
		e.prog.Append(gcode.CommentLine("GROUP: " + op.Label))
		for _, child := range op.Children {
			if !child.Active {
				e.log.Warn("operation inactive, skipped", "operation", child.Label)
				continue
			}
			e.prog.Append(gcode.CommentLine("PATH: " + child.Label))
			e.walk(child)
		}
		return
	}
	for _, in := range op.Instructions {
		e.dispatch(in, op)
	}
}

func (e *Exporter) dispatch(in *gcode.Instruction, op *toolpath.Operation) {
	name := in.Name
	switch {
	case e.allowed[name]:
		e.emit(in, op)
		e.postEmit(in)
	case gcode.IsRetractMode(name) && e.cfg.TranslateDrill:
		if name == "G98" {
			e.prog.SetRetractMode(gcode.RetractInitial)
		} else {
			e.prog.SetRetractMode(gcode.RetractRPlane)
		}
	case gcode.IsCannedCycle(name) && e.cfg.TranslateDrill:
		e.drill(in, op)
	case name == "message":
		e.prog.Append(gcode.CommentLine("message: " + e.format.Instruction(in)))
	case e.cfg.Comments && strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")"):
		e.prog.Append(gcode.CommentLine(strings.TrimSuffix(strings.TrimPrefix(name, "("), ")")))
	default:
		e.log.Warn("command ignored", "name", name)
	}
}

// emit appends an instruction, backfilling a feed rate onto rapids
// that lack one.
func (e *Exporter) emit(in *gcode.Instruction, op *toolpath.Operation) {
	if gcode.IsRapid(in.Name) && !in.Has('F') {
		e.backfillFeed(in, op)
	}
	e.prog.AppendInstruction(in)
}

// postEmit runs the follow-up an allow-listed command requires: a
// spin-up wait after spindle start, the change block after M6/M06.
func (e *Exporter) postEmit(in *gcode.Instruction) {
	switch {
	case gcode.IsSpindleOn(in.Name):
		if e.cfg.SpindleWait > 0 {
			e.prog.AppendInstruction(gcode.MustInstruction("G4", map[byte]float64{'S': e.cfg.SpindleWait}))
		} else {
			e.prog.AppendInstruction(gcode.MustInstruction("M400", nil))
		}
	case gcode.IsToolChange(in.Name) && e.cfg.ToolChange:
		e.prog.Append(gcode.CommentLine("TOOL CHANGE"))
		if e.cfg.ToolChangeGcode != "" {
			e.rawLines(e.cfg.ToolChangeGcode)
		} else {
			e.prog.AppendInstruction(gcode.MustInstruction(e.cfg.Pause, nil))
		}
	}
}

// backfillFeed picks the rapid feed from the tool or setup-sheet
// rates: horizontal for XY moves, vertical for Z-only, the smaller
// of the two for mixed. Without usable rates it inherits the last
// feed move's F, or warns.
func (e *Exporter) backfillFeed(in *gcode.Instruction, op *toolpath.Operation) {
	vert, horiz := e.rapidRates(op)
	if vert > 0 && horiz > 0 {
		feed := vert
		if in.Has('X') || in.Has('Y') {
			feed = horiz
			if in.Has('Z') {
				feed = math.Min(vert, horiz)
			}
		}
		_ = in.AddParam('F', feed)
		return
	}
	if last := e.prog.LastInstruction(gcode.FeedMotionNames...); last != nil {
		if f, ok := last.Param('F'); ok {
			_ = in.AddParam('F', f)
			return
		}
	}
	e.log.Warn("no rapid feed rate available", "instruction", in.Name)
}

func (e *Exporter) rapidRates(op *toolpath.Operation) (vert, horiz float64) {
	if op != nil && op.Tool != nil && op.Tool.VertRapid > 0 && op.Tool.HorizRapid > 0 {
		return op.Tool.VertRapid, op.Tool.HorizRapid
	}
	if e.job != nil {
		return e.job.Setup.VertRapid, e.job.Setup.HorizRapid
	}
	return 0, 0
}

func (e *Exporter) finalPosition() {
	fp := e.cfg.FinalPosition
	if fp == nil {
		return
	}
	e.prog.AppendInstruction(gcode.MustInstruction("G0", map[byte]float64{
		'X': fp.X, 'Y': fp.Y, 'Z': fp.Z,
	}))
}
