package runtime

import (
	"strconv"
	"strings"

	"tandem-cli/internal/ui"
)

// RouteIntent is what an action handler returns to pick the next route.
type RouteIntent = ui.Intent

// To builds a RouteIntent.
func To(app, page string, args ...string) *RouteIntent {
	return &RouteIntent{App: app, Page: page, Args: args}
}

// RouteSelection is a resolved route.
type RouteSelection struct {
	App  *Application
	Page PageDefinition
	Args []string
}

// Scope is the form state prefix of the selection.
func (s RouteSelection) Scope() string {
	return s.App.Name() + "." + s.Page.Name + "."
}

// Router maps positional arguments onto the registry: the first names the
// app, the second the page, the rest are page arguments.
type Router struct {
	Registry *Registry
}

func (r Router) Resolve(positionals []string) (RouteSelection, error) {
	appName, pageName := "", ""
	var args []string
	if len(positionals) > 0 {
		appName = positionals[0]
	}
	if len(positionals) > 1 {
		pageName = positionals[1]
	}
	if len(positionals) > 2 {
		args = append(args, positionals[2:]...)
	}
	return r.route(appName, pageName, args)
}

// Intent resolves a RouteIntent returned by a handler.
func (r Router) Intent(in RouteIntent) (RouteSelection, error) {
	return r.route(in.App, in.Page, in.Args)
}

// Choose resolves an interactive app choice: a 1-based index or an app name.
// Anything else reloads currentApp's default page.
func (r Router) Choose(choice, currentApp string) (RouteSelection, error) {
	choice = strings.TrimSpace(choice)
	apps := r.Registry.Apps()
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(apps) {
		return r.route(apps[n-1].Name(), "", nil)
	}
	for _, a := range apps {
		if a.Name() == choice {
			return r.route(a.Name(), "", nil)
		}
	}
	return r.route(currentApp, "", nil)
}

func (r Router) route(appName, pageName string, args []string) (RouteSelection, error) {
	var (
		app *Application
		err error
	)
	if appName == "" {
		app, err = r.Registry.DefaultApp()
	} else {
		app, err = r.Registry.App(appName)
	}
	if err != nil {
		return RouteSelection{}, err
	}
	var page PageDefinition
	if pageName == "" {
		page, err = app.DefaultPage()
	} else {
		page, err = app.Page(pageName)
	}
	if err != nil {
		return RouteSelection{}, err
	}
	return RouteSelection{App: app, Page: page, Args: args}, nil
}
