package runtime

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"tandem-cli/internal/protocol"
)

const maxRequestLine = 4 << 20

// ServeWorker answers JSON line requests from r on w until r is exhausted, an
// exit request arrives, or ctx is done. Every non-blank line gets exactly one
// response line; lines that do not decode get an error payload.
func ServeWorker(ctx context.Context, k *Kernel, r io.Reader, w io.Writer) error {
	log := k.logger()
	sess := NewSession(true)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRequestLine)
	out := bufio.NewWriter(w)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp protocol.Response
		req, err := protocol.DecodeRequest(line)
		switch {
		case err != nil:
			log.Warn("worker: unreadable request", "err", err)
			resp = ErrorResponse(err)
		case req.IsExit():
			log.Debug("worker: exit requested")
			return nil
		default:
			resp = k.serve(sess, req.Args)
		}

		if err := writeResponse(out, resp); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (k *Kernel) serve(sess *Session, args []string) (resp protocol.Response) {
	log := k.logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error("worker: page panicked", "args", args, "panic", r)
			resp = ErrorResponse(fmt.Errorf("page panicked: %v", r))
		}
	}()
	inv, err := ParseInvocation(args)
	if err != nil {
		log.Warn("worker: bad arguments", "args", args, "err", err)
		return ErrorResponse(err)
	}
	sel, err := k.Resolve(sess, inv)
	if err != nil {
		log.Warn("worker: route failed", "args", args, "err", err)
		return ErrorResponse(err)
	}
	resp, err = k.Payload(sess, sel)
	if err != nil {
		log.Warn("worker: render failed", "app", sel.App.Name(), "page", sel.Page.Name, "err", err)
		return ErrorResponse(err)
	}
	log.Debug("worker: rendered", "app", sel.App.Name(), "page", sel.Page.Name, "actions", sess.Actions.Len(), "generation", sess.Actions.Generation())
	return resp
}
