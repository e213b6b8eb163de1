package runtime

import "tandem-cli/internal/ui"

// Session is the content-side state that outlives one request: the action
// table, form values and the last good route.
type Session struct {
	// Worker marks a session driven by a display process. Only worker
	// sessions register handlers; others resolve buttons eagerly.
	Worker bool

	Actions *ActionTable
	Form    *FormState

	last *RouteSelection
}

func NewSession(worker bool) *Session {
	return &Session{
		Worker:  worker,
		Actions: NewActionTable(),
		Form:    NewFormState(),
	}
}

// Last returns the last good route, if any.
func (s *Session) Last() (RouteSelection, bool) {
	if s.last == nil {
		return RouteSelection{}, false
	}
	return *s.last, true
}

func (s *Session) remember(sel RouteSelection) {
	s.last = &sel
}

func (s *Session) state(sel RouteSelection) PageState {
	return PageState{form: s.Form, scope: sel.Scope()}
}

func (s *Session) binder(sel RouteSelection) ui.Binder {
	if !s.Worker {
		return ui.EagerBinder{}
	}
	return workerBinder{table: s.Actions, state: s.state(sel)}
}

// workerBinder registers handlers in the session's action table.
type workerBinder struct {
	table *ActionTable
	state PageState
}

func (b workerBinder) BindClick(_ string, fn ui.ClickFunc) []string {
	id := b.table.Register(func(string, string) (*RouteIntent, error) {
		return fn()
	})
	return []string{"--action", id}
}

func (b workerBinder) BindChange(field string, fn ui.ChangeFunc) string {
	state := b.state
	return b.table.Register(func(value, old string) (*RouteIntent, error) {
		state.Set(field, value)
		return fn(value, old)
	})
}
