package source

import (
	"strings"

	"golang.org/x/net/html"
)

// Supported selector syntax, a practical subset of CSS:
//
//	tag, .class, #id, tag.class, tag#id, [attr], tag[attr=val]
//
// Parts separated by whitespace are descendant combinators.

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
}

// querySelector returns the first node in document order matching selector.
func querySelector(root *html.Node, selector string) *html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil
	}
	chain := make([]simpleSelector, 0, len(parts))
	for _, p := range parts {
		chain = append(chain, parseSimpleSelector(p))
	}

	var found *html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if matchesChain(n, chain) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

// matchesChain checks the last part against n and the remaining parts
// against n's ancestors, right to left.
func matchesChain(n *html.Node, chain []simpleSelector) bool {
	last := len(chain) - 1
	if !matchesSelector(n, chain[last]) {
		return false
	}
	i := last - 1
	for p := n.Parent; p != nil && i >= 0; p = p.Parent {
		if matchesSelector(p, chain[i]) {
			i--
		}
	}
	return i < 0
}

func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimSuffix(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(attrPart, '='); eq >= 0 {
			s.attrKey = attrPart[:eq]
			s.attrVal = strings.Trim(attrPart[eq+1:], `"'`)
		} else {
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		rest := sel[idx+1:]
		sel = sel[:idx]
		if dot := strings.IndexByte(rest, '.'); dot >= 0 {
			sel += rest[dot:]
			rest = rest[:dot]
		}
		s.id = rest
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		for _, c := range strings.Split(sel[idx+1:], ".") {
			if c != "" {
				s.classes = append(s.classes, c)
			}
		}
		sel = sel[:idx]
	}

	s.tag = strings.ToLower(sel)
	return s
}

func matchesSelector(n *html.Node, s simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && s.tag != "*" && n.Data != s.tag {
		return false
	}
	if s.id != "" && getAttr(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, want := range s.classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	if s.attrKey != "" {
		val, ok := lookupAttr(n, s.attrKey)
		if !ok {
			return false
		}
		if s.attrVal != "" && val != s.attrVal {
			return false
		}
	}
	return true
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
