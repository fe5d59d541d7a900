package registrar

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vmunix/mediarover/pkg/episode"
)

// Choice is the answer to a per-series confirmation.
type Choice int

const (
	ChoiceYes Choice = iota
	ChoiceNo
	ChoiceQuit
)

// Prompter answers the interactive questions of a run.
type Prompter interface {
	// ProcessSeries asks whether to process the named series.
	ProcessSeries(name string) (Choice, error)

	// Quality asks for the band of a group of episodes with the given
	// average file size. A quit answer returns ErrAborted.
	Quality(count int, averageSize int64, def episode.Quality) (episode.Quality, error)
}

const seriesHelp = `
Options:
(y)es    - process series and specify episode quality
(n)o     - skip to next series
(q)uit   - exit`

const qualityHelp = `
Quality Options:
(l)ow    - mark episodes as being of low quality
(m)edium - mark episodes as being of medium quality
(h)igh   - mark episodes as being of high quality`

// Terminal is the stdin/stdout Prompter.
type Terminal struct {
	scanner *bufio.Scanner
	out     io.Writer

	printedQualityHelp bool
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{scanner: bufio.NewScanner(in), out: out}
}

func (t *Terminal) ProcessSeries(name string) (Choice, error) {
	answer, err := t.ask(fmt.Sprintf("Process '%s'? ([y]/n/q/?)", name), "y", []string{"y", "n", "q"}, seriesHelp)
	if err != nil {
		return ChoiceQuit, err
	}
	switch answer {
	case "n":
		return ChoiceNo, nil
	case "q":
		return ChoiceQuit, nil
	}
	return ChoiceYes, nil
}

func (t *Terminal) Quality(count int, averageSize int64, def episode.Quality) (episode.Quality, error) {
	if !t.printedQualityHelp {
		t.printedQualityHelp = true
		fmt.Fprintln(t.out, qualityHelp)
	}
	fmt.Fprintf(t.out, "Found %d episode(s) with average size of %dMB\n", count, averageSize/(1024*1024))

	prompt := make([]string, 0, 5)
	for _, band := range []episode.Quality{episode.QualityLow, episode.QualityMedium, episode.QualityHigh} {
		letter := band.String()[:1]
		if band == def {
			letter = "[" + letter + "]"
		}
		prompt = append(prompt, letter)
	}
	prompt = append(prompt, "q", "?")

	fallback := ""
	if def != episode.QualityUnknown {
		fallback = def.String()[:1]
	}
	answer, err := t.ask(fmt.Sprintf("Quality? (%s)", strings.Join(prompt, "/")), fallback, []string{"l", "m", "h", "q"}, qualityHelp)
	if err != nil {
		return episode.QualityUnknown, err
	}
	switch answer {
	case "l":
		return episode.QualityLow, nil
	case "m":
		return episode.QualityMedium, nil
	case "h":
		return episode.QualityHigh, nil
	}
	return episode.QualityUnknown, ErrAborted
}

// ask repeats the question until it gets one of the accepted answers,
// printing help on "?". An empty line takes the default when there is
// one; exhausted input reads as quit.
func (t *Terminal) ask(question, def string, accepted []string, help string) (string, error) {
	for {
		fmt.Fprintf(t.out, "%s ", question)
		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return "", err
			}
			return "q", nil
		}
		answer := strings.ToLower(strings.TrimSpace(t.scanner.Text()))
		switch {
		case answer == "" && def != "":
			return def, nil
		case answer == "?":
			fmt.Fprintln(t.out, help)
		default:
			for _, ok := range accepted {
				if answer == ok {
					return answer, nil
				}
			}
		}
	}
}
