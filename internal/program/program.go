package program

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"pype/internal/source"
	"pype/internal/trace"
	"pype/internal/transpile"
)

// EntryPoint is the name of the generated function.
const EntryPoint = "pype"

// Fragment names.
const (
	Before   = "before"
	Pipeline = "pipeline"
	After    = "after"
)

// Options describes one program.
type Options struct {
	Before   string
	Pipeline string
	After    string
	// Trim strips the trailing newline from every input line.
	Trim bool
	// Debug adds progress output around every input line.
	Debug bool
	// Normalize runs fragments through source.Normalize first.
	Normalize bool
}

// Fragment is one transpiled piece of user code.
type Fragment struct {
	Name   string
	Input  string
	Output string
	State  transpile.State
}

// Program is the assembled source plus the fragments it was built from.
type Program struct {
	Source    string
	Fragments []Fragment
}

// Fragment returns the fragment called name, if present.
func (p *Program) Fragment(name string) (Fragment, bool) {
	for _, f := range p.Fragments {
		if f.Name == name {
			return f, true
		}
	}
	return Fragment{}, false
}

// Unbalanced returns the fragments whose scan ended with open strings,
// brackets or blocks.
func (p *Program) Unbalanced() []Fragment {
	var out []Fragment
	for _, f := range p.Fragments {
		if !f.State.Balanced() {
			out = append(out, f)
		}
	}
	return out
}

// TranspileAll transpiles the non-empty fragments of opts. Each fragment gets
// its own parse state, so they run concurrently.
func TranspileAll(ctx context.Context, opts Options) ([]Fragment, error) {
	inputs := []Fragment{
		{Name: Before, Input: opts.Before},
		{Name: Pipeline, Input: opts.Pipeline},
		{Name: After, Input: opts.After},
	}
	frags := make([]Fragment, 0, len(inputs))
	for _, f := range inputs {
		// the pipeline is always present, even when empty
		if f.Input == "" && f.Name != Pipeline {
			continue
		}
		if opts.Normalize {
			f.Input = source.Virtual(f.Name, f.Input, true).Text()
		}
		frags = append(frags, f)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range frags {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, span := trace.Start(gctx, trace.ScopeFragment, "transpile:"+frags[i].Name)
			res := transpile.Run(frags[i].Input)
			frags[i].Output = res.Output
			frags[i].State = res.State
			span.WithExtra("bytes", fmt.Sprint(len(res.Output))).End(res.State.String())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frags, nil
}

// Assemble transpiles the fragments and wraps them in the entry point.
func Assemble(ctx context.Context, opts Options) (*Program, error) {
	ctx, span := trace.Start(ctx, trace.ScopePass, "assemble")
	frags, err := TranspileAll(ctx, opts)
	if err != nil {
		span.End("cancelled")
		return nil, err
	}
	p := &Program{Fragments: frags}
	p.Source = render(p, opts)
	span.WithExtra("fragments", fmt.Sprint(len(frags))).End("")
	return p, nil
}

func render(p *Program, opts Options) string {
	var b strings.Builder
	line := func(level int, text string) {
		b.WriteString(Indent(text, level))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "def %s(input_lines):\n", EntryPoint)

	if before, ok := p.Fragment(Before); ok {
		line(1, "# before")
		if opts.Debug {
			line(1, `print("--before")`)
		}
		if body := tidy(before.Output); body != "" {
			line(1, body)
		}
		b.WriteString("\n")
	}

	if opts.Debug {
		line(1, "__lineno__ = 1")
		b.WriteString("\n")
	}

	line(1, "for _ in input_lines:")
	bodyEmpty := true
	if opts.Trim {
		line(2, `_ = _.rstrip("\n")`)
		bodyEmpty = false
	}
	if opts.Debug {
		line(2, `print("== input line %d" % __lineno__)`)
		line(2, "print(_)")
		line(2, `print("== output line %d" % __lineno__)`)
		line(2, "__lineno__ += 1")
		bodyEmpty = false
	}
	line(2, "# pipeline")
	pipeline, _ := p.Fragment(Pipeline)
	if body := tidy(pipeline.Output); body != "" {
		line(2, body)
		bodyEmpty = false
	}
	if bodyEmpty {
		line(2, "pass")
	}

	if after, ok := p.Fragment(After); ok {
		line(1, "# after")
		if opts.Debug {
			line(1, `print("--after")`)
		}
		if body := tidy(after.Output); body != "" {
			line(1, body)
		}
	}

	return strings.TrimSpace(b.String()) + "\n"
}
