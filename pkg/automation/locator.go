package automation

import (
	"fmt"
	"regexp"
	"strings"
)

// LocatorKind selects the query language of a Locator.
type LocatorKind string

const (
	KindCSS   LocatorKind = "css"
	KindXPath LocatorKind = "xpath"
)

// Locator addresses zero or more elements on a page.
type Locator struct {
	Query string
	Kind  LocatorKind
}

// CSS returns a CSS locator.
func CSS(query string) Locator { return Locator{Query: query, Kind: KindCSS} }

// XPath returns an XPath locator.
func XPath(query string) Locator { return Locator{Query: query, Kind: KindXPath} }

func (l Locator) String() string {
	if l.Kind == KindXPath {
		return "xpath=" + l.Query
	}
	return l.Query
}

var hasTextRe = regexp.MustCompile(`^([A-Za-z][\w-]*)?:has-text\((?:"([^"]*)"|'([^']*)')\)$`)

// ParseSelector turns a selector string as written in a test step into a Locator.
//
// Supported forms:
//
//	xpath=//div        explicit XPath
//	//div, (//div)[1]  XPath
//	text="Save"        element whose own text is exactly Save
//	text=Save          element whose text contains Save
//	button:has-text("New")
//	anything else      CSS
func ParseSelector(sel string) Locator {
	s := strings.TrimSpace(sel)
	switch {
	case strings.HasPrefix(s, "xpath="):
		return XPath(strings.TrimPrefix(s, "xpath="))
	case strings.HasPrefix(s, "//"), strings.HasPrefix(s, "(//"):
		return XPath(s)
	case strings.HasPrefix(s, "text="):
		text := strings.TrimPrefix(s, "text=")
		if unq, ok := unquote(text); ok {
			return ExactText(unq)
		}
		return ContainsText("*", text)
	}
	if m := hasTextRe.FindStringSubmatch(s); m != nil {
		tag := m[1]
		if tag == "" {
			tag = "*"
		}
		return ContainsText(tag, m[2]+m[3])
	}
	return CSS(s)
}

// ExactText matches any element whose own normalized text equals text.
func ExactText(text string) Locator {
	return XPath(fmt.Sprintf("//*[text()[normalize-space(.)=%s]]", xpathLiteral(text)))
}

// ContainsText matches tag elements whose normalized text contains text.
func ContainsText(tag, text string) Locator {
	return XPath(fmt.Sprintf("//%s[contains(normalize-space(.),%s)]", tag, xpathLiteral(text)))
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}

// cssString quotes s as a CSS attribute value.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
