package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/paysplit/pkg/constants"
)

// ErrExtraction is matched by every ExtractionError.
var ErrExtraction = errors.New("extraction failed")

// ExtractionError reports a required field that no rule matched, or whose
// captured value could not be used. Err holds the underlying cause, if any.
type ExtractionError struct {
	Field    FieldName
	Template string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrExtraction, e.Field, e.Err)
	}
	if e.Template == "" {
		return fmt.Sprintf("%s: %s not found in pay stub", ErrExtraction, e.Field)
	}
	return fmt.Sprintf("%s: %s not found in pay stub using template %s", ErrExtraction, e.Field, e.Template)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrExtraction) match any ExtractionError.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// Result holds the raw captured string for each field a template matched.
// Fields that did not match are absent.
type Result struct {
	Template string
	values   map[FieldName]string
}

// NewResult builds a result from captured values. The map is copied.
func NewResult(template string, values map[FieldName]string) Result {
	copied := make(map[FieldName]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Result{Template: template, values: copied}
}

// Get returns the captured value for field.
func (r Result) Get(field FieldName) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Require returns the captured value for field or an ExtractionError.
func (r Result) Require(field FieldName) (string, error) {
	v, ok := r.values[field]
	if !ok {
		return "", &ExtractionError{Field: field, Template: r.Template}
	}
	return v, nil
}

// Values returns a copy of all captured values.
func (r Result) Values() map[FieldName]string {
	copied := make(map[FieldName]string, len(r.values))
	for k, v := range r.values {
		copied[k] = v
	}
	return copied
}

// Matched returns how many fields were captured.
func (r Result) Matched() int {
	return len(r.values)
}

// Missing lists the standard fields that were not captured.
func (r Result) Missing() []FieldName {
	var missing []FieldName
	for _, field := range StandardFields {
		if _, ok := r.values[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// Extractor applies a chosen template, or picks the best matching one when
// the mode is auto.
type Extractor struct {
	mode      string
	templates []Template
}

// New creates an extractor. mode is "auto", "" (same as auto) or the name of
// a built-in or custom template. Custom templates replace built-ins of the
// same name and are otherwise tried after them.
func New(mode string, custom ...Template) (*Extractor, error) {
	mode = strings.TrimSpace(strings.ToLower(mode))
	if mode == "" {
		mode = constants.TemplateAuto
	}

	templates := BuiltinTemplates()
	for _, tmpl := range custom {
		replaced := false
		for i := range templates {
			if templates[i].Name == tmpl.Name {
				templates[i] = tmpl
				replaced = true
				break
			}
		}
		if !replaced {
			templates = append(templates, tmpl)
		}
	}

	e := &Extractor{mode: mode, templates: templates}
	if mode != constants.TemplateAuto {
		if _, ok := e.template(mode); !ok {
			return nil, fmt.Errorf("unknown template %q, expected %s or one of %s",
				mode, constants.TemplateAuto, strings.Join(e.TemplateNames(), ", "))
		}
	}
	return e, nil
}

// Mode returns the configured template selection.
func (e *Extractor) Mode() string {
	return e.mode
}

// TemplateNames lists the available templates in detection order.
func (e *Extractor) TemplateNames() []string {
	names := make([]string, 0, len(e.templates))
	for _, tmpl := range e.templates {
		names = append(names, tmpl.Name)
	}
	return names
}

func (e *Extractor) template(name string) (Template, bool) {
	for _, tmpl := range e.templates {
		if tmpl.Name == name {
			return tmpl, true
		}
	}
	return Template{}, false
}

// Extract applies the selected template to text. It never fails: fields that
// do not match are simply absent from the result.
//
// In auto mode every template is tried. A template that captured Net Pay
// beats one that did not, then the template with more captured fields wins,
// and remaining ties go to the earlier template.
func (e *Extractor) Extract(text string) Result {
	if e.mode != constants.TemplateAuto {
		tmpl, _ := e.template(e.mode)
		return tmpl.Apply(text)
	}

	var best Result
	found := false
	for _, tmpl := range e.templates {
		res := tmpl.Apply(text)
		if !found || better(res, best) {
			best = res
			found = true
		}
	}
	return best
}

func better(candidate, current Result) bool {
	_, candNet := candidate.Get(FieldNetPay)
	_, curNet := current.Get(FieldNetPay)
	if candNet != curNet {
		return candNet
	}
	return candidate.Matched() > current.Matched()
}
