package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// AccessRule changes the visibility of one class or member at the source
// level. Member is empty for class-level rules; for methods it carries the
// parameter signature suffix, which is ignored during matching (source
// level overload disambiguation is not worth the fragility).
type AccessRule struct {
	Modifier string // "public", "protected" or "private"
	Class    string // dotted class name
	Member   string
}

// ParseAccessRules reads an access transformation file: one rule per line,
// `<modifier> <class> [<member>]`, '#' starts a comment.
func ParseAccessRules(r io.Reader) ([]AccessRule, error) {
	var rules []AccessRule
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if hash := strings.IndexByte(line, '#'); hash >= 0 {
			line = line[:hash]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("access transformation line %d: expected `modifier class [member]`", lineNo)
		}
		modifier := strings.TrimSuffix(fields[0], "-f") // final-stripping markers are accepted but not acted on
		switch modifier {
		case "public", "protected", "private":
		default:
			return nil, fmt.Errorf("access transformation line %d: unknown modifier %q", lineNo, fields[0])
		}
		rule := AccessRule{Modifier: modifier, Class: fields[1]}
		if len(fields) == 3 {
			rule.Member = fields[2]
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read access transformations: %w", err)
	}
	return rules, nil
}

// AccessTransformer applies parsed rules to source text.
type AccessTransformer struct {
	byClass map[string][]AccessRule
}

// NewAccessTransformer indexes rules by their target class.
func NewAccessTransformer(rules []AccessRule) *AccessTransformer {
	t := &AccessTransformer{byClass: make(map[string][]AccessRule)}
	for _, r := range rules {
		t.byClass[r.Class] = append(t.byClass[r.Class], r)
	}
	return t
}

// Apply rewrites the visibility of matching declarations in the source of
// className (dotted form). Unmatched rules leave the source untouched.
func (t *AccessTransformer) Apply(className, src string) string {
	rules := t.byClass[className]
	if len(rules) == 0 {
		return src
	}

	simple := className
	if dot := strings.LastIndexByte(simple, '.'); dot >= 0 {
		simple = simple[dot+1:]
	}
	if dollar := strings.LastIndexByte(simple, '$'); dollar >= 0 {
		simple = simple[dollar+1:]
	}

	lines := strings.Split(src, "\n")
	for _, rule := range rules {
		target := simple
		if rule.Member != "" {
			target = rule.Member
			if paren := strings.IndexByte(target, '('); paren >= 0 {
				target = target[:paren]
			}
		}
		for i, line := range lines {
			if rule.Member == "" && !isTypeDeclaration(line, target) {
				continue
			}
			if rule.Member != "" && !isMemberDeclaration(line, target) {
				continue
			}
			lines[i] = setModifier(line, rule.Modifier)
			break
		}
	}
	return strings.Join(lines, "\n")
}

func isTypeDeclaration(line, simple string) bool {
	trimmed := strings.TrimSpace(line)
	for _, kw := range []string{"class ", "interface ", "enum "} {
		if idx := strings.Index(trimmed, kw); idx >= 0 {
			rest := trimmed[idx+len(kw):]
			if rest == simple || strings.HasPrefix(rest, simple+" ") ||
				strings.HasPrefix(rest, simple+"<") || strings.HasPrefix(rest, simple+"{") {
				return true
			}
		}
	}
	return false
}

func isMemberDeclaration(line, name string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") {
		return false
	}
	idx := strings.Index(trimmed, name)
	if idx <= 0 || trimmed[idx-1] != ' ' {
		return false
	}
	rest := trimmed[idx+len(name):]
	return strings.HasPrefix(rest, "(") || strings.HasPrefix(rest, ";") ||
		strings.HasPrefix(rest, " =") || strings.HasPrefix(rest, " ;")
}

// setModifier swaps or inserts the leading access modifier of a
// declaration line, preserving indentation.
func setModifier(line, modifier string) string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	rest := line[len(indent):]
	for _, existing := range []string{"public ", "protected ", "private "} {
		if strings.HasPrefix(rest, existing) {
			return indent + modifier + " " + rest[len(existing):]
		}
	}
	return indent + modifier + " " + rest
}
