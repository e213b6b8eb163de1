// Package demo registers the sample applications served by `tandem run`.
package demo

import (
	"strings"

	"tandem-cli/internal/runtime"
	"tandem-cli/internal/ui"
)

// Registry returns the demo registry: "main" (home, about) and "tools" (status).
func Registry() *runtime.Registry {
	reg := runtime.NewRegistry()
	reg.AddApp(MainApp(), true)
	reg.AddApp(ToolsApp(), false)
	return reg
}

func MainApp() *runtime.Application {
	app := runtime.NewApplication("main", ui.AppOptions{Columns: 64, Scheme: ui.SchemeDark})
	app.AddPage(runtime.PageDefinition{Name: "home", Build: homePage}, true)
	app.AddPage(runtime.PageDefinition{Name: "about", Build: aboutPage}, false)
	return app
}

func ToolsApp() *runtime.Application {
	app := runtime.NewApplication("tools", ui.AppOptions{Columns: 72, Scheme: ui.SchemeDark})
	app.AddPage(runtime.PageDefinition{Name: "status", Build: statusPage}, true)
	return app
}

func homePage(req runtime.PageRequest) ui.Element {
	argsText := "No args provided."
	if len(req.Args) > 0 {
		argsText = strings.Join(req.Args, " ")
	}
	mode := req.State.Get("mode", "")
	modeText := "Mode is not set."
	if mode != "" {
		modeText = "Mode: " + mode
	}

	return ui.NewPage("Main App").
		Section("Welcome", func(s *ui.Section) {
			s.Text(`Console UI booted. Use "main about" or "tools status".`)
			s.Card("Next", func(c *ui.Card) {
				c.Text("Jump to other pages using the commands below.")
				c.Add(ui.NewButton("Tools").Hint("tools status").Route("tools", "status"))
			})
			s.Table([]string{"Item", "Value"}, []string{"Args", argsText})
			s.Add(ui.NewButton("About").Hint("main about").Route("main", "about"))
			s.Add(ui.NewButton("Tools").Hint("tools status").Route("tools", "status"))
		}).
		Section("Inputs", func(s *ui.Section) {
			s.Add(ui.NewTextInput("name").
				Label("Name").
				Required(true).
				HelperText("Internal name for administration purposes only").
				ColumnSpan(2))
			s.Add(ui.NewTextInput("mode").
				Label("Mode").
				Placeholder("debug").
				Value(mode).
				Reactive(func(value, old string) (*ui.Intent, error) {
					return runtime.To("main", "home", req.Args...), nil
				}))
			s.Add(ui.NewText(modeText))
		})
}

func aboutPage(req runtime.PageRequest) ui.Element {
	version := req.Arg(0, "dev")
	theme := req.State.Get("theme", "")

	themeSelect := ui.NewSelect("theme").
		Label("Theme").
		Option("dark", "Dark").
		Option("light", "Light").
		HelperText("UI theme preference").
		Reactive(func(value, old string) (*ui.Intent, error) {
			return nil, nil
		})
	if theme != "" {
		themeSelect.Value(theme)
	}

	return ui.NewPage("About").
		Section("Runtime", func(s *ui.Section) {
			s.Text("This is a multi-app CLI runtime demo.")
			s.Table([]string{"Key", "Value"},
				[]string{"Version", version},
				[]string{"Framework", "tandem"},
			)
			s.Add(themeSelect)
			s.Buttons(ui.NewButton("Home").Hint("main home").OnClick(func() (*ui.Intent, error) {
				return runtime.To("main", "home"), nil
			}))
		})
}

func statusPage(req runtime.PageRequest) ui.Element {
	state := strings.ToUpper(req.Arg(0, "ok"))
	return ui.NewPage("Tools Status").
		Section("Health", func(s *ui.Section) {
			s.Text("All systems ready.")
			s.Table([]string{"Service", "State"},
				[]string{"CLI", state},
				[]string{"Worker", "READY"},
			)
			s.Buttons(ui.NewButton("Home").Hint("main home").Route("main", "home"))
		})
}
