package checkpoint

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrNoInput is returned when input ends before a field without a default
// received a valid value.
var ErrNoInput = errors.New("checkpoint: input closed before a value was given")

// Presenter writes a phase result for the user to review.
type Presenter func(w io.Writer, result any)

// ConsoleGate prompts on a line-oriented reader and writer.
type ConsoleGate struct {
	out     io.Writer
	present Presenter
	timeout time.Duration
	hook    SelectionHook

	lines    chan lineResult
	startOne sync.Once
	reader   *bufio.Reader
}

type lineResult struct {
	line string
	err  error
}

// ConsoleOption configures a ConsoleGate.
type ConsoleOption func(*ConsoleGate)

// WithPresenter sets how the reviewed result is displayed.
func WithPresenter(p Presenter) ConsoleOption {
	return func(g *ConsoleGate) { g.present = p }
}

// WithTimeout applies defaults to any field still unanswered after d.
// Zero waits forever.
func WithTimeout(d time.Duration) ConsoleOption {
	return func(g *ConsoleGate) { g.timeout = d }
}

// WithSelectionHook reports every resolved field to h.
func WithSelectionHook(h SelectionHook) ConsoleOption {
	return func(g *ConsoleGate) { g.hook = h }
}

// NewConsoleGate creates a gate reading from in and writing to out.
func NewConsoleGate(in io.Reader, out io.Writer, opts ...ConsoleOption) *ConsoleGate {
	g := &ConsoleGate{
		out:    out,
		reader: bufio.NewReader(in),
		lines:  make(chan lineResult),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewStdioGate creates a console gate on the process's stdin and stdout.
func NewStdioGate(opts ...ConsoleOption) *ConsoleGate {
	return NewConsoleGate(os.Stdin, os.Stdout, opts...)
}

// SetSelectionHook implements ObservableGate.
func (g *ConsoleGate) SetSelectionHook(h SelectionHook) {
	g.hook = h
}

// CollectSelections implements Gate.
func (g *ConsoleGate) CollectSelections(ctx context.Context, result any, fields []FieldSpec) (Selection, error) {
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}

	if g.present != nil && result != nil {
		g.present(g.out, result)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	sel := make(Selection, len(fields))
	for _, f := range fields {
		v, usedDefault, err := g.collect(ctx, f)
		if err != nil {
			return nil, err
		}
		sel[f.Name] = v
		if g.hook != nil {
			g.hook(f.Name, usedDefault)
		}
	}
	return sel, nil
}

func (g *ConsoleGate) collect(ctx context.Context, f FieldSpec) (any, bool, error) {
	for {
		g.prompt(f)

		line, err := g.readLine(ctx)
		if err != nil {
			// Input closed or timed out: fall back to the default.
			if d, ok := f.DefaultValue(); ok {
				fmt.Fprintf(g.out, "\n  using default: %s\n", f.DefaultLabel())
				return d, true, nil
			}
			if errors.Is(err, io.EOF) {
				return nil, false, fmt.Errorf("%s: %w", f.Name, ErrNoInput)
			}
			return nil, false, fmt.Errorf("%s: %w", f.Name, err)
		}

		v, usedDefault, err := f.Resolve(line)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				fmt.Fprintf(g.out, "  %s, please try again\n", ve.Reason)
				continue
			}
			return nil, false, err
		}
		if usedDefault && strings.TrimSpace(line) != "" {
			fmt.Fprintf(g.out, "  invalid input, using default: %s\n", f.DefaultLabel())
		}
		return v, usedDefault, nil
	}
}

func (g *ConsoleGate) prompt(f FieldSpec) {
	fmt.Fprintln(g.out)
	if len(f.Options) > 0 && f.Kind != KindText {
		for i, opt := range f.Options {
			fmt.Fprintf(g.out, "  %d. %s\n", i+1, opt)
		}
	}
	fmt.Fprintf(g.out, "%s", f.Prompt)
	if label := f.DefaultLabel(); label != "" {
		fmt.Fprintf(g.out, " [%s]", label)
	}
	fmt.Fprint(g.out, ": ")
}

// readLine returns the next input line. A single goroutine owns the reader
// so a line typed after a timeout is not lost to a later read.
func (g *ConsoleGate) readLine(ctx context.Context) (string, error) {
	g.startOne.Do(func() {
		go func() {
			for {
				line, err := g.reader.ReadString('\n')
				if err != nil && line == "" {
					g.lines <- lineResult{err: err}
					close(g.lines)
					return
				}
				g.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
			}
		}()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-g.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}
