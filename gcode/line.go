package gcode

type LineKind int

const (
	KindInstruction LineKind = iota
	KindComment
	KindHeader
	KindRaw
)

// Line is one entry of a Program: an instruction, or one of the text
// kinds. Comments and headers can be filtered out at render time; raw
// lines always render verbatim.
type Line struct {
	Kind LineKind
	Inst *Instruction // KindInstruction only
	Text string       // text kinds only
}

func InstructionLine(in *Instruction) Line { return Line{Kind: KindInstruction, Inst: in} }
func CommentLine(text string) Line         { return Line{Kind: KindComment, Text: text} }
func HeaderLine(text string) Line          { return Line{Kind: KindHeader, Text: text} }
func RawLine(text string) Line             { return Line{Kind: KindRaw, Text: text} }

func (ln Line) Equal(o Line) bool {
	if ln.Kind != o.Kind {
		return false
	}
	if ln.Kind == KindInstruction {
		return ln.Inst.Equal(o.Inst)
	}
	return ln.Text == o.Text
}
