// Package dispatch turns display interactions into content requests.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tandem-cli/internal/logs"
	"tandem-cli/internal/protocol"
)

// ErrUnbound is returned for a click on a button that carries no arguments.
var ErrUnbound = errors.New("dispatch: button is not bound")

// ErrEmptyResponse is returned when the content process answered with nothing.
var ErrEmptyResponse = errors.New("dispatch: empty response")

// Request is a closed union: Click or FieldCommit.
type Request interface {
	isRequest()
}

// Click is a pressed button.
type Click struct {
	Label string
	Args  []string
}

// FieldCommit is a settled edit of a field bound to a change action.
type FieldCommit struct {
	ActionID string
	Name     string
	Old      string
	New      string
}

func (Click) isRequest()       {}
func (FieldCommit) isRequest() {}

// Reply is the raw result of one round trip.
type Reply struct {
	Output   string
	ExitCode int
}

// Transport sends one argument vector to the content process.
type Transport interface {
	Execute(ctx context.Context, args []string) (Reply, error)
}

// Outcome is what the host displays after a request. Response is always
// usable: on failure it is protocol.FailureResponse.
type Outcome struct {
	Request  Request
	Args     []string
	Response protocol.Response
	Err      error
	Sent     bool
	ExitCode int
	Bytes    int
	Elapsed  time.Duration
}

func (o Outcome) Failed() bool { return o.Err != nil }

type Dispatcher struct {
	Transport Transport
	// Base holds the persistent flags appended to every request.
	Base   []string
	Logger *slog.Logger
	// Observe, when set, sees every outcome that reached the transport.
	Observe func(context.Context, Outcome)

	now func() time.Time
}

// New builds a dispatcher whose persistent flags come from invocation.
func New(t Transport, invocation []string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{Transport: t, Base: PersistentFlags(invocation), Logger: logger}
}

// PersistentFlags returns every argument that begins with "-", in order.
func PersistentFlags(invocation []string) []string {
	var out []string
	for _, a := range invocation {
		if strings.HasPrefix(a, "-") {
			out = append(out, a)
		}
	}
	return out
}

// Args builds the final argument vector for req.
func Args(req Request, base []string) ([]string, error) {
	var args []string
	switch r := req.(type) {
	case Click:
		if len(r.Args) == 0 {
			return nil, ErrUnbound
		}
		args = append(args, r.Args...)
	case FieldCommit:
		if r.ActionID == "" {
			return nil, fmt.Errorf("dispatch: field %q has no change action", r.Name)
		}
		args = append(args, "--action", r.ActionID, "--value", r.New, "--old", r.Old)
	default:
		return nil, fmt.Errorf("dispatch: unknown request %T", req)
	}
	return append(args, base...), nil
}

// Execute sends req and parses the answer.
func (d *Dispatcher) Execute(ctx context.Context, req Request) Outcome {
	args, err := Args(req, d.Base)
	if err != nil {
		return Outcome{Request: req, Err: err}
	}
	out := d.send(ctx, args)
	out.Request = req
	return out
}

// Initial sends the original invocation unchanged.
func (d *Dispatcher) Initial(ctx context.Context, invocation []string) Outcome {
	return d.send(ctx, append([]string(nil), invocation...))
}

func (d *Dispatcher) send(ctx context.Context, args []string) Outcome {
	log := d.logger()
	ctx, _ = logs.WithRequest(ctx)
	now := d.now
	if now == nil {
		now = time.Now
	}

	start := now()
	reply, err := d.Transport.Execute(ctx, args)
	out := Outcome{Args: args, Sent: true, ExitCode: reply.ExitCode, Bytes: len(reply.Output), Elapsed: now().Sub(start)}

	if err == nil {
		resp, ok := protocol.Parse(reply.Output)
		switch {
		case ok:
			out.Response = resp
		case resp.Text != "":
			log.DebugContext(ctx, "dispatch: response is not JSON, showing text", "args", args)
			out.Response = resp
		default:
			err = ErrEmptyResponse
		}
	}
	if err != nil {
		log.ErrorContext(ctx, "dispatch: transport failed", "args", args, "err", err)
		out.Err = err
		out.Response = protocol.FailureResponse()
	} else {
		log.DebugContext(ctx, "dispatch: response", "args", args, "bytes", out.Bytes, "elapsed", out.Elapsed)
	}

	if d.Observe != nil {
		d.Observe(ctx, out)
	}
	return out
}

func (d *Dispatcher) logger() *slog.Logger { return logs.Discard(d.Logger) }
