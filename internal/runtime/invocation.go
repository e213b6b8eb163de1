package runtime

import (
	"io"

	"github.com/spf13/pflag"
)

// Invocation is one parsed content run.
type Invocation struct {
	Positionals []string

	UIJSON        bool
	NoInteractive bool
	UIWorker      bool

	Action string
	Value  string
	Old    string
	Name   string

	HasName bool
}

// ParseInvocation splits args into route positionals and the flags the
// kernel understands. Unknown flags are ignored so that the launcher can pass
// its own persistent flags through.
func ParseInvocation(args []string) (Invocation, error) {
	var inv Invocation
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}

	var help bool
	fs.BoolVar(&inv.UIJSON, "ui-json", false, "")
	fs.BoolVar(&inv.NoInteractive, "no-interactive", false, "")
	fs.BoolVar(&inv.UIWorker, "ui-worker", false, "")
	fs.StringVar(&inv.Action, "action", "", "")
	fs.StringVar(&inv.Value, "value", "", "")
	fs.StringVar(&inv.Old, "old", "", "")
	fs.StringVar(&inv.Name, "name", "", "")
	fs.BoolVarP(&help, "help", "h", false, "")

	if err := fs.Parse(args); err != nil {
		return Invocation{}, err
	}
	inv.HasName = fs.Changed("name")
	inv.Positionals = fs.Args()
	return inv, nil
}
