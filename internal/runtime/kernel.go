package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"tandem-cli/internal/logs"
	"tandem-cli/internal/protocol"
	"tandem-cli/internal/ui"
)

// SwitchPrompt is shown after a text render in interactive mode.
const SwitchPrompt = "Switch app (enter to quit): "

// Kernel turns invocations into rendered pages.
type Kernel struct {
	Registry *Registry
	Logger   *slog.Logger

	// Getenv reads COLUMNS and APP_COLOR_SCHEME. Defaults to os.Getenv.
	Getenv func(string) string

	// Prompter drives the app switch loop of text mode. Nil disables it.
	Prompter Prompter

	// Interactive reports whether stdin is a terminal.
	Interactive bool
}

func (k *Kernel) logger() *slog.Logger { return logs.Discard(k.Logger) }

func (k *Kernel) getenv(key string) string {
	if k.Getenv != nil {
		return k.Getenv(key)
	}
	return os.Getenv(key)
}

func (k *Kernel) router() Router { return Router{Registry: k.Registry} }

// Run executes one content invocation and writes its output to w. In text
// mode it keeps prompting for another app until the answer is empty.
func (k *Kernel) Run(ctx context.Context, sess *Session, args []string, w io.Writer) error {
	inv, err := ParseInvocation(args)
	if err != nil {
		return err
	}
	sel, err := k.Resolve(sess, inv)
	if err != nil {
		return err
	}

	if inv.UIJSON {
		resp, err := k.Payload(sess, sel)
		if err != nil {
			return err
		}
		return writeResponse(w, resp)
	}

	interactive := k.Interactive && !inv.NoInteractive && k.Prompter != nil
	for {
		text, err := k.Text(sess, sel)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
		if !interactive {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		choice, err := k.Prompter.Prompt(SwitchPrompt)
		if err != nil {
			return err
		}
		if choice == "" {
			return nil
		}
		sel, err = k.router().Choose(choice, sel.App.Name())
		if err != nil {
			return err
		}
		sess.remember(sel)
	}
}

// Resolve picks the route for inv. An action id takes precedence; when it is
// unknown, fails, or returns no intent, the session's last route is kept.
func (k *Kernel) Resolve(sess *Session, inv Invocation) (RouteSelection, error) {
	log := k.logger()
	if inv.Action != "" {
		if inv.HasName {
			base, ok := sess.Last()
			if !ok {
				var err error
				if base, err = k.router().Resolve(inv.Positionals); err != nil {
					return RouteSelection{}, err
				}
			}
			sess.state(base).Set(inv.Name, inv.Value)
			sess.remember(base)
		}

		intent, err := sess.Actions.Invoke(inv.Action, inv.Value, inv.Old)
		switch {
		case err != nil:
			log.Warn("action failed; keeping last route", "action", inv.Action, "err", err)
		case intent != nil:
			sel, err := k.router().Intent(*intent)
			if err == nil {
				sess.remember(sel)
				return sel, nil
			}
			log.Warn("action returned an unknown route", "action", inv.Action, "app", intent.App, "page", intent.Page, "err", err)
		}
		if last, ok := sess.Last(); ok {
			return last, nil
		}
	}

	sel, err := k.router().Resolve(inv.Positionals)
	if err != nil {
		return RouteSelection{}, err
	}
	sess.remember(sel)
	return sel, nil
}

func (k *Kernel) build(sess *Session, sel RouteSelection, structured bool) (ui.Element, *ui.Context, error) {
	sess.Actions.Advance()
	rctx, err := ui.ContextFromEnv(k.getenv, sess.binder(sel))
	if err != nil {
		return nil, nil, err
	}
	opts := sel.App.Options()
	if structured {
		plain := ui.PlainPalette()
		opts.Palette = &plain
	}
	page := sel.Page.Build(PageRequest{Args: sel.Args, State: sess.state(sel)})
	root := ui.NewApp(opts)
	if page != nil {
		root.Add(page)
	}
	return root, rctx, nil
}

// Payload renders sel as a structured response.
func (k *Kernel) Payload(sess *Session, sel RouteSelection) (protocol.Response, error) {
	root, rctx, err := k.build(sess, sel, true)
	if err != nil {
		return protocol.Response{}, err
	}
	return ui.RenderPayload(root, rctx, sel.App.Name()), nil
}

// Text renders sel as plain text.
func (k *Kernel) Text(sess *Session, sel RouteSelection) (string, error) {
	root, rctx, err := k.build(sess, sel, false)
	if err != nil {
		return "", err
	}
	return ui.Render(root, rctx), nil
}

func writeResponse(w io.Writer, resp protocol.Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// ErrorResponse is sent by a worker when a request cannot be rendered.
func ErrorResponse(err error) protocol.Response {
	msg := "Error: " + err.Error()
	return protocol.Response{
		Text: msg,
		Nodes: protocol.Group{
			Type:     protocol.TypeApp,
			ID:       "kernel",
			Children: []protocol.Node{protocol.Text{ID: "kernel-error", Text: msg}},
		},
	}
}
