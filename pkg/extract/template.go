package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iwvelando/paysplit/pkg/constants"
)

// Rule pairs a field with a pattern holding exactly one capture group.
type Rule struct {
	Field   FieldName
	Pattern *regexp.Regexp
}

// NewRule compiles pattern and checks that it captures exactly one group.
func NewRule(field FieldName, pattern string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule for %s: %w", field, err)
	}
	if n := re.NumSubexp(); n != 1 {
		return Rule{}, fmt.Errorf("rule for %s: pattern must have exactly one capture group, has %d", field, n)
	}
	return Rule{Field: field, Pattern: re}, nil
}

func mustRule(field FieldName, pattern string) Rule {
	rule, err := NewRule(field, pattern)
	if err != nil {
		panic(err)
	}
	return rule
}

// Match returns the first capture group of the rule's pattern in text.
func (r Rule) Match(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Template is a named set of rules describing one statement layout.
type Template struct {
	Name  string
	Rules []Rule
}

// NewTemplate builds a template from field name to pattern pairs. Field names
// are resolved with ParseFieldName.
func NewTemplate(name string, patterns map[string]string) (Template, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Template{}, fmt.Errorf("template name is required")
	}
	if name == constants.TemplateAuto {
		return Template{}, fmt.Errorf("template name %q is reserved", name)
	}
	if len(patterns) == 0 {
		return Template{}, fmt.Errorf("template %s has no rules", name)
	}

	byField := make(map[FieldName]string, len(patterns))
	for key, pattern := range patterns {
		field, err := ParseFieldName(key)
		if err != nil {
			return Template{}, fmt.Errorf("template %s: %w", name, err)
		}
		if _, dup := byField[field]; dup {
			return Template{}, fmt.Errorf("template %s: field %s defined twice", name, field)
		}
		byField[field] = pattern
	}

	tmpl := Template{Name: name}
	for _, field := range StandardFields {
		pattern, ok := byField[field]
		if !ok {
			continue
		}
		rule, err := NewRule(field, pattern)
		if err != nil {
			return Template{}, fmt.Errorf("template %s: %w", name, err)
		}
		tmpl.Rules = append(tmpl.Rules, rule)
	}
	return tmpl, nil
}

// Apply runs every rule of the template against text.
func (t Template) Apply(text string) Result {
	values := make(map[FieldName]string, len(t.Rules))
	for _, rule := range t.Rules {
		if v, ok := rule.Match(text); ok {
			values[rule.Field] = v
		}
	}
	return NewResult(t.Name, values)
}

const (
	depositDatePattern = `Paid by DIRECT DEPOSIT on (\d{2}-\d{2}-\d{4})`
	amount             = `\d[\d,]*\.\d{2}`
	legacySummary      = `Earnings\n-\nTaxes\n-\nDeductions\n=\nNet Pay\nCurrent\n`
)

// Legacy is the older layout where the earnings summary is printed one value
// per line beneath an "Earnings - Taxes - Deductions = Net Pay" header.
func Legacy() Template {
	return Template{
		Name: constants.TemplateLegacy,
		Rules: []Rule{
			mustRule(FieldDirectDepositDate, depositDatePattern),
			mustRule(FieldEmployeeFullName, `(\w+ \w+ \w+)  \n`),
			mustRule(FieldCurrentEarnings, legacySummary+`\s+(`+amount+`)`),
			mustRule(FieldCurrentTaxes, legacySummary+`\s+`+amount+`\n\s+(`+amount+`)`),
			mustRule(FieldNetPay, `Net Pay\nCurrent\n\s+`+amount+`\n\s+`+amount+`\n.+\n\s+(`+amount+`)`),
		},
	}
}

// Current is the columnar layout with CURRENT / YTD columns. The employee name
// is the third line of the statement. Earnings are the CURRENT column of the
// first row below the earnings header, the amount just before the YTD figure
// that ends the row. Net pay is the first amount on the Net Pay line.
func Current() Template {
	return Template{
		Name: constants.TemplateCurrent,
		Rules: []Rule{
			mustRule(FieldDirectDepositDate, depositDatePattern),
			mustRule(FieldEmployeeFullName, `^(?:[^\n]*\n){2}([^\n]+)`),
			mustRule(FieldCurrentEarnings, `(?m)EARNINGS[^\n]*CURRENT[^\n]*\n[^\n]*?(`+amount+`)[ \t]+`+amount+`[ \t]*$`),
			mustRule(FieldCurrentTaxes, `TAXES/DEDUCTIONS\s*[\s\S]*?CURRENT\s*[\s\S]*?(`+amount+`)`),
			mustRule(FieldNetPay, `Net Pay[^\n\d]*(`+amount+`)`),
		},
	}
}

// BuiltinTemplates returns the built-in templates in detection priority order.
func BuiltinTemplates() []Template {
	return []Template{Current(), Legacy()}
}
