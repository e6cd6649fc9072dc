package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrCancelled is returned when conflict resolution is cancelled.
var ErrCancelled = errors.New("import cancelled")

// Field names a conflicting song field.
type Field string

const (
	FieldTitle  Field = "title"
	FieldArtist Field = "artist"
	FieldYear   Field = "year"
	FieldOffset Field = "offset"
	FieldLabel  Field = "label"
)

// ConcatSeparator joins both values when the concatenation option is chosen.
const ConcatSeparator = " & "

// Choice lists the competing values of one field.
type Choice struct {
	Field    Field
	Existing string
	Incoming string
	// Options holds every value the resolver may pick: existing, incoming and,
	// for artist and label, both values joined.
	Options []string
}

// Conflict describes a record that disagrees with an already merged song.
type Conflict struct {
	SongID  string
	MediaID string
	Record  Record
	Choices []Choice
}

// Decision is the outcome of resolving a conflict. Fields missing from
// Values keep the existing value.
type Decision struct {
	Cancel bool
	Values map[Field]string
}

// Resolver decides conflicting field values.
type Resolver interface {
	Resolve(ctx context.Context, c Conflict) (Decision, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, c Conflict) (Decision, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, c Conflict) (Decision, error) {
	return f(ctx, c)
}

// PreferExisting keeps the values of the first record seen.
var PreferExisting Resolver = ResolverFunc(func(_ context.Context, c Conflict) (Decision, error) {
	d := Decision{Values: make(map[Field]string, len(c.Choices))}
	for _, ch := range c.Choices {
		d.Values[ch.Field] = ch.Existing
	}
	return d, nil
})

// PreferIncoming lets the newest record win.
var PreferIncoming Resolver = ResolverFunc(func(_ context.Context, c Conflict) (Decision, error) {
	d := Decision{Values: make(map[Field]string, len(c.Choices))}
	for _, ch := range c.Choices {
		d.Values[ch.Field] = ch.Incoming
	}
	return d, nil
})

// CancelOnConflict aborts the import at the first conflict.
var CancelOnConflict Resolver = ResolverFunc(func(context.Context, Conflict) (Decision, error) {
	return Decision{Cancel: true}, nil
})

// Prompt asks an operator to pick each conflicting value. It blocks until a
// choice is made; "c" or end of input cancels.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt returns a Prompt reading answers from in and writing questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Resolve implements Resolver.
func (p *Prompt) Resolve(ctx context.Context, c Conflict) (Decision, error) {
	fmt.Fprintf(p.out, "\nConflict for %s (line %d, song %s):\n", c.MediaID, c.Record.Line, c.SongID)

	d := Decision{Values: make(map[Field]string, len(c.Choices))}
	for _, ch := range c.Choices {
		for {
			if err := ctx.Err(); err != nil {
				return Decision{}, err
			}

			fmt.Fprintf(p.out, "  %s:\n", ch.Field)
			for i, opt := range ch.Options {
				fmt.Fprintf(p.out, "    %d) %q\n", i+1, opt)
			}
			fmt.Fprint(p.out, "  Choose an option or 'c' to cancel: ")

			answer, err := p.in.ReadString('\n')
			answer = strings.TrimSpace(answer)
			if err != nil && answer == "" {
				if errors.Is(err, io.EOF) {
					return Decision{Cancel: true}, nil
				}
				return Decision{}, err
			}

			if strings.EqualFold(answer, "c") || strings.EqualFold(answer, "cancel") {
				return Decision{Cancel: true}, nil
			}
			n, convErr := strconv.Atoi(answer)
			if convErr != nil || n < 1 || n > len(ch.Options) {
				fmt.Fprintf(p.out, "  Invalid choice %q\n", answer)
				continue
			}
			d.Values[ch.Field] = ch.Options[n-1]
			break
		}
	}
	return d, nil
}
