package forms

// Form agrupa campos por nome, preservando a ordem de inclusão.
type Form struct {
	order  []string
	fields map[string]*Field
}

func NewForm(fields ...*Field) *Form {
	f := &Form{fields: make(map[string]*Field)}
	for _, field := range fields {
		f.Add(field)
	}
	return f
}

// Add inclui (ou substitui) um campo.
func (f *Form) Add(field *Field) {
	if _, exists := f.fields[field.Name()]; !exists {
		f.order = append(f.order, field.Name())
	}
	f.fields[field.Name()] = field
}

// Field devolve o campo pelo nome, ou nil.
func (f *Form) Field(name string) *Field {
	return f.fields[name]
}

// Validate revalida todos os campos e informa se o formulário está válido.
func (f *Form) Validate() bool {
	for _, name := range f.order {
		f.fields[name].Validate()
	}
	return f.Valid()
}

func (f *Form) Valid() bool {
	for _, name := range f.order {
		if !f.fields[name].Valid() {
			return false
		}
	}
	return true
}

// Errors devolve o primeiro erro de cada campo inválido.
func (f *Form) Errors() map[string]ErrorTag {
	out := make(map[string]ErrorTag)
	for _, name := range f.order {
		if tag := f.fields[name].Error(); tag != TagNone {
			out[name] = tag
		}
	}
	return out
}

func (f *Form) Dirty() bool {
	for _, name := range f.order {
		if f.fields[name].Dirty() {
			return true
		}
	}
	return false
}

func (f *Form) Pristine() bool { return !f.Dirty() }

// MarkPristine zera a marcação de alteração de todos os campos.
func (f *Form) MarkPristine() {
	for _, name := range f.order {
		f.fields[name].dirty = false
	}
}

// ApplyServerErrors anexa a cada campo conhecido suas mensagens do servidor,
// marcadas como origem servidor. Devolve os nomes que não correspondem a campos.
func (f *Form) ApplyServerErrors(errs map[string][]string) []string {
	var unknown []string
	for name, messages := range errs {
		field, ok := f.fields[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		field.SetServerErrors(messages)
	}
	return unknown
}

func (f *Form) ClearServerErrors() {
	for _, name := range f.order {
		f.fields[name].ClearServerErrors()
	}
}

// Values devolve o valor de todos os campos, inclusive os desabilitados.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.order))
	for _, name := range f.order {
		out[name] = f.fields[name].Value()
	}
	return out
}
