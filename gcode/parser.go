package gcode

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Parser reads instruction text line by line. A line may carry
// several instructions ("G90 G17 G21"); G and M words start a new
// instruction, other letters attach as parameters to the current
// one. N words (line numbers) are skipped. Whole-line parenthesized
// comments and bare words ("message") come back as instructions
// named by their text, for the dispatcher to sort out.
type Parser struct {
	br    *bufio.Reader
	queue []*Instruction
}

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}
	return &Parser{br: bufio.NewReader(r)}
}

var (
	rxLine  = regexp.MustCompile(`^([A-Z][0-9.\-]+)+$`)
	rxSplit = regexp.MustCompile(`[A-Z][0-9.\-]+`)
	rxWord  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func (p *Parser) Read() (*Instruction, error) {
	for len(p.queue) == 0 {
		s, err := p.br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err != nil {
			return nil, err
		}

		s = strings.SplitN(s, ";", 2)[0]
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			p.queue = append(p.queue, &Instruction{Name: s})
			continue
		}

		squashed := strings.ToUpper(strings.Replace(s, " ", "", -1))
		if !rxLine.MatchString(squashed) {
			if rxWord.MatchString(s) {
				p.queue = append(p.queue, &Instruction{Name: s})
				continue
			}
			return nil, errors.New("invalid or unhandled line: " + s)
		}

		ins, err := parseWords(squashed)
		if err != nil {
			return nil, err
		}
		p.queue = append(p.queue, ins...)
	}

	in := p.queue[0]
	p.queue = p.queue[1:]
	return in, nil
}

// parseWords splits an uppercased, space-free word line into
// instructions.
func parseWords(s string) ([]*Instruction, error) {
	var ins []*Instruction
	var cur *Instruction
	for i, w := range rxSplit.FindAllString(s, -1) {
		var letter byte
		var arg float64
		_, err := fmt.Sscanf(w, "%c%f", &letter, &arg)
		if err != nil {
			return nil, err
		}

		switch {
		case letter == 'N':
			// discarded: numbering is a render concern
		case i == 0 || letter == 'G' || letter == 'M':
			cur = &Instruction{Name: w}
			ins = append(ins, cur)
		default:
			if cur == nil {
				cur = &Instruction{Name: w}
				ins = append(ins, cur)
				continue
			}
			if err := cur.AddParam(letter, arg); err != nil {
				return nil, err
			}
		}
	}
	return ins, nil
}

// ParseAll reads every instruction from data.
func ParseAll(data string) ([]*Instruction, error) {
	p := NewParser(bytes.NewBufferString(data))
	var ins []*Instruction
	for {
		in, err := p.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ins = append(ins, in)
	}
	return ins, nil
}

func MustParse(data string) []*Instruction {
	ins, err := ParseAll(data)
	if err != nil {
		panic(err)
	}
	return ins
}
