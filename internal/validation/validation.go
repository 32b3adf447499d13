package validation

import "strings"

type Severity int

const (
	SeverityText Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// Key classifies why a validation item was produced, so callers can branch
// on the reason without parsing the rendered message.
type Key string

const (
	KeyNone        Key = ""
	KeySecurity    Key = "security"
	KeyInvalidData Key = "invalid_data"
)

type Item struct {
	Severity Severity
	Key      Key
	Text     string
}

// Message renders the item with its severity glyph.
func (i Item) Message() string {
	switch i.Severity {
	case SeverityInfo:
		return "ℹ " + i.Text
	case SeverityWarning:
		return "⚠ " + i.Text
	case SeverityError:
		return "❗ " + i.Text
	default:
		return i.Text
	}
}

// Result is the immutable outcome of a validation run.
type Result struct {
	items      []Item
	hasInfo    bool
	hasWarning bool
	hasError   bool
	message    string
}

func newResult(items []Item) Result {
	r := Result{items: items}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		switch item.Severity {
		case SeverityInfo:
			r.hasInfo = true
		case SeverityWarning:
			r.hasWarning = true
		case SeverityError:
			r.hasError = true
		}
		if text := item.Message(); text != "" {
			lines = append(lines, text)
		}
	}
	r.message = strings.Join(lines, "\n")
	return r
}

// IsValid reports whether the result carries no warnings and no errors.
func (r Result) IsValid() bool {
	return !r.hasWarning && !r.hasError
}

func (r Result) HasErrors() bool  { return r.hasError }
func (r Result) HasWarning() bool { return r.hasWarning }
func (r Result) HasInfo() bool    { return r.hasInfo }

// HasKey reports whether any item carries the given key.
func (r Result) HasKey(key Key) bool {
	for _, item := range r.items {
		if item.Key == key {
			return true
		}
	}
	return false
}

// Message is the newline-joined rendering of every item in insertion order.
func (r Result) Message() string {
	return r.message
}

// Concat combines two results, preserving item order and recomputing the
// aggregate flags.
func (r Result) Concat(other Result) Result {
	combined := make([]Item, 0, len(r.items)+len(other.items))
	combined = append(combined, r.items...)
	combined = append(combined, other.items...)
	return newResult(combined)
}

// Builder accumulates conditional validation items. Conditions are judged
// at the moment the item is added.
type Builder struct {
	items []Item
}

func Start() *Builder {
	return &Builder{}
}

func (b *Builder) Text(text string, condition bool) *Builder {
	return b.add(SeverityText, KeyNone, text, condition)
}

func (b *Builder) Info(text string, condition bool) *Builder {
	return b.add(SeverityInfo, KeyNone, text, condition)
}

func (b *Builder) Warning(text string, key Key, condition bool) *Builder {
	return b.add(SeverityWarning, key, text, condition)
}

func (b *Builder) Error(text string, key Key, condition bool) *Builder {
	return b.add(SeverityError, key, text, condition)
}

func (b *Builder) add(severity Severity, key Key, text string, condition bool) *Builder {
	if condition {
		b.items = append(b.items, Item{Severity: severity, Key: key, Text: text})
	}
	return b
}

func (b *Builder) Build() Result {
	return newResult(b.items)
}
