package eval

import (
	"fmt"
	"strings"

	"github.com/roach88/weldgraph/internal/graph"
	"github.com/roach88/weldgraph/internal/ir"
	"github.com/roach88/weldgraph/internal/program"
)

// Arg is one parameter of the assembled program: its name, IR type, host
// value, encoded bytes and offset in the call frame.
type Arg struct {
	Name   string
	Type   ir.Type
	Value  ir.Value
	Data   []byte
	Offset int
}

// Call is a program ready to compile and run.
//
// Args is the single ordered parameter list. Header and Frame are both
// derived from it, so parameter i of the header is field i of the frame.
type Call struct {
	Program *program.Program
	Args    []Arg
	Text    string
	Frame   []byte

	// Hash identifies Text; FrameHash identifies Frame.
	Hash      string
	FrameHash string
}

// Header renders the function header, e.g. "|_inp0: i64, _inp1: vec[f64]|".
func (c *Call) Header() string {
	return header(c.Args)
}

func header(args []Arg) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		b.WriteString(": ")
		b.WriteString(a.Type.String())
	}
	b.WriteByte('|')
	return b.String()
}

// pack concatenates the encoded arguments in order, recording offsets.
func pack(args []Arg) []byte {
	size := 0
	for _, a := range args {
		size += len(a.Data)
	}
	frame := make([]byte, 0, size)
	for i := range args {
		args[i].Offset = len(frame)
		frame = append(frame, args[i].Data...)
	}
	return frame
}

// assemble builds the Call for a flattened program.
func assemble(p *program.Program, enc Encoder) (*Call, error) {
	args := make([]Arg, 0, len(p.Inputs))
	for _, in := range p.Inputs {
		t := in.Type
		if _, raw := in.Value.(ir.Raw); t != nil && !raw && !ir.TypesEqual(in.Value.Type(), t) {
			// Encode follows the value's own layout, which t would not describe.
			return nil, &ArgumentError{Name: in.Name, Err: fmt.Errorf("%w: %s declared as %s", graph.ErrTypeMismatch, in.Value.Type(), t)}
		}
		if t == nil {
			inferred, err := enc.TypeOf(in.Value)
			if err != nil {
				return nil, &ArgumentError{Name: in.Name, Err: err}
			}
			t = inferred
		}
		data, err := enc.Encode(in.Value)
		if err != nil {
			return nil, &ArgumentError{Name: in.Name, Err: err}
		}
		args = append(args, Arg{Name: in.Name, Type: t, Value: in.Value, Data: data})
	}

	frame := pack(args)
	text := header(args) + " " + p.Body()
	return &Call{
		Program:   p,
		Args:      args,
		Text:      text,
		Frame:     frame,
		Hash:      ir.ProgramHash(text),
		FrameHash: ir.FrameHash(frame),
	}, nil
}
