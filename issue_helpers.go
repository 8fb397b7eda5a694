package saf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/saf/i18n"
)

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// pointerOf joins path segments into a JSON Pointer; ints become array indexes.
func pointerOf(parts ...any) string {
	if len(parts) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		switch t := p.(type) {
		case int:
			b.WriteString(strconv.Itoa(t))
		case string:
			b.WriteString(pointerEscaper.Replace(t))
		default:
			b.WriteString(pointerEscaper.Replace(fmt.Sprint(t)))
		}
	}
	return b.String()
}

// issueAt creates an Issue whose message comes from the i18n catalog.
func issueAt(path, code string, sev Severity, data map[string]string) Issue {
	return Issue{
		Path:     path,
		Code:     code,
		Severity: sev,
		Message:  i18n.T(code, data),
		Field:    data["attr"],
		Offset:   -1,
	}
}

// kindOf names the JSON kind of a decoded value for messages.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case *Object, map[string]any:
		return "object"
	case []any, []*Object:
		return "array"
	}
	if _, ok := asFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
