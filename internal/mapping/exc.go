package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParamTable maps method parameters to names, parsed from the `.exc` format:
//
//	pkg/Class.method(Lpkg/Arg;I)V=ExceptionA,ExceptionB|p_7012_1_,p_7012_2_
//
// The segment before '|' lists declared exceptions (unused here), the
// segment after it lists parameter names in positional order.
type ParamTable struct {
	params map[srgMethodKey][]string
}

// ParseParamTable reads a parameter table.
func ParseParamTable(r io.Reader) (*ParamTable, error) {
	t := &ParamTable{params: make(map[srgMethodKey][]string)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, fmt.Errorf("exc line %d: missing '='", lineNo)
		}
		lhs, rhs := line[:eq], line[eq+1:]

		paren := strings.IndexByte(lhs, '(')
		dot := strings.LastIndexByte(lhs[:max(paren, 0)], '.')
		if paren < 0 || dot < 0 {
			return nil, fmt.Errorf("exc line %d: malformed method reference %q", lineNo, lhs)
		}
		key := srgMethodKey{
			owner: lhs[:dot],
			name:  lhs[dot+1 : paren],
			desc:  lhs[paren:],
		}

		var names []string
		if pipe := strings.IndexByte(rhs, '|'); pipe >= 0 && pipe < len(rhs)-1 {
			names = strings.Split(rhs[pipe+1:], ",")
		}
		if len(names) > 0 {
			t.params[key] = names
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read exc table: %w", err)
	}
	return t, nil
}

// MapParameterName implements ParameterMapping.
func (t *ParamTable) MapParameterName(owner, method, desc string, position int) (string, bool) {
	names, ok := t.params[srgMethodKey{owner, method, desc}]
	if !ok || position < 0 || position >= len(names) {
		return "", false
	}
	return names[position], true
}
