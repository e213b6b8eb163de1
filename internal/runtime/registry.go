package runtime

import (
	"errors"
	"fmt"

	"tandem-cli/internal/ui"
)

// ErrNotFound matches every lookup failure of the registry and action table.
var ErrNotFound = errors.New("not found")

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func (e notFoundError) Is(target error) bool { return target == ErrNotFound }

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// PageRequest is what a page builder sees for one render.
type PageRequest struct {
	Args  []string
	State PageState
}

// Arg returns the i-th page argument or def.
func (r PageRequest) Arg(i int, def string) string {
	if i < len(r.Args) && r.Args[i] != "" {
		return r.Args[i]
	}
	return def
}

// PageDefinition builds one page of an application.
type PageDefinition struct {
	Name  string
	Build func(req PageRequest) ui.Element
}

// Application is a named set of pages with shared render options.
type Application struct {
	name        string
	options     ui.AppOptions
	pages       map[string]PageDefinition
	order       []string
	defaultPage string
}

func NewApplication(name string, opts ui.AppOptions) *Application {
	return &Application{name: name, options: opts, pages: map[string]PageDefinition{}}
}

func (a *Application) Name() string { return a.name }

func (a *Application) Options() ui.AppOptions { return a.options }

// PageNames lists pages in registration order.
func (a *Application) PageNames() []string { return append([]string(nil), a.order...) }

// AddPage registers p. The first page added is the default unless a later one
// is added with isDefault.
func (a *Application) AddPage(p PageDefinition, isDefault bool) *Application {
	if _, ok := a.pages[p.Name]; !ok {
		a.order = append(a.order, p.Name)
	}
	a.pages[p.Name] = p
	if isDefault || a.defaultPage == "" {
		a.defaultPage = p.Name
	}
	return a
}

func (a *Application) Page(name string) (PageDefinition, error) {
	p, ok := a.pages[name]
	if !ok {
		return PageDefinition{}, errNotFound("page", a.name+"."+name)
	}
	return p, nil
}

func (a *Application) DefaultPage() (PageDefinition, error) {
	if a.defaultPage == "" {
		return PageDefinition{}, fmt.Errorf("no default page configured for app %s", a.name)
	}
	return a.Page(a.defaultPage)
}

// Registry holds the registered applications in registration order.
type Registry struct {
	apps       map[string]*Application
	order      []*Application
	defaultApp string
	explicit   bool
}

func NewRegistry() *Registry {
	return &Registry{apps: map[string]*Application{}}
}

// AddApp registers app. An app named "main" becomes the default when no app
// is marked explicitly; otherwise the first app added is.
func (r *Registry) AddApp(app *Application, isDefault bool) *Registry {
	if _, ok := r.apps[app.Name()]; !ok {
		r.order = append(r.order, app)
	} else {
		for i, existing := range r.order {
			if existing.Name() == app.Name() {
				r.order[i] = app
			}
		}
	}
	r.apps[app.Name()] = app
	switch {
	case isDefault:
		r.defaultApp = app.Name()
	case r.defaultApp == "":
		r.defaultApp = app.Name()
	case app.Name() == DefaultAppName && !r.explicit:
		r.defaultApp = app.Name()
	}
	if isDefault {
		r.explicit = true
	}
	return r
}

// DefaultAppName is preferred as default app when present.
const DefaultAppName = "main"

func (r *Registry) App(name string) (*Application, error) {
	a, ok := r.apps[name]
	if !ok {
		return nil, errNotFound("app", name)
	}
	return a, nil
}

func (r *Registry) DefaultApp() (*Application, error) {
	if r.defaultApp == "" {
		return nil, errors.New("no default app configured")
	}
	return r.apps[r.defaultApp], nil
}

func (r *Registry) Apps() []*Application {
	return append([]*Application(nil), r.order...)
}
