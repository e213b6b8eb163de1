package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Prompter asks the user for one line. An empty answer ends the loop.
type Prompter interface {
	Prompt(message string) (string, error)
}

// SurveyPrompter prompts on the controlling terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Prompt(message string) (string, error) {
	var out string
	prompt := &survey.Input{Message: strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(message), ":"))}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// LinePrompter writes the message to W and reads one line from R.
type LinePrompter struct {
	R *bufio.Reader
	W io.Writer
}

func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{R: bufio.NewReader(r), W: w}
}

func (p *LinePrompter) Prompt(message string) (string, error) {
	if _, err := fmt.Fprint(p.W, message); err != nil {
		return "", err
	}
	line, err := p.R.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
