package runtime

// FormState keeps field values on the content side, keyed by scope + key.
type FormState struct {
	values map[string]string
}

func NewFormState() *FormState {
	return &FormState{values: map[string]string{}}
}

func (f *FormState) Get(scope, key, def string) string {
	if v, ok := f.values[scope+key]; ok {
		return v
	}
	return def
}

func (f *FormState) Set(scope, key, value string) {
	f.values[scope+key] = value
}

// PageState is FormState bound to one route's scope.
type PageState struct {
	form  *FormState
	scope string
}

func (p PageState) Get(key, def string) string {
	if p.form == nil {
		return def
	}
	return p.form.Get(p.scope, key, def)
}

func (p PageState) Set(key, value string) {
	if p.form == nil {
		return
	}
	p.form.Set(p.scope, key, value)
}
