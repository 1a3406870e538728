package template

import (
	"strconv"
	"strings"
	"text/template"
	"unicode"
)

// CustomFuncMap returns the custom template functions available in templates.
func CustomFuncMap() template.FuncMap {
	return template.FuncMap{
		"quote":     strconv.Quote,
		"ident":     Ident,
		"toLower":   strings.ToLower,
		"trimSpace": strings.TrimSpace,
		"contains":  strings.Contains,
		"indent": func(tabs int, s string) string {
			pad := strings.Repeat("\t", tabs)
			lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
			for i, line := range lines {
				if line != "" {
					lines[i] = pad + line
				}
			}
			return strings.Join(lines, "\n")
		},
	}
}

// Ident turns free text into an exported Go identifier: "ui generated" -> "UiGenerated".
func Ident(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteString("X")
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Suite"
	}
	return b.String()
}
