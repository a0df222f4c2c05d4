package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SRG holds a first-level mapping table parsed from the line-oriented
// `joined.srg` format:
//
//	PK: ./ net/minecraft/src
//	CL: a net/minecraft/util/Vec3
//	FD: a/b net/minecraft/util/Vec3/xCoord
//	MD: a/c (DDD)D net/minecraft/util/Vec3/distanceTo (DDD)D
//
// Field rows carry no descriptor (the format guarantees owner+name is
// unique), method rows are keyed by owner, name and descriptor.
type SRG struct {
	classes map[string]string
	fields  map[srgFieldKey]string
	methods map[srgMethodKey]string
}

type srgFieldKey struct {
	owner string
	name  string
}

type srgMethodKey struct {
	owner string
	name  string
	desc  string
}

// ParseSRG reads an SRG mapping table.
func ParseSRG(r io.Reader) (*SRG, error) {
	s := &SRG{
		classes: make(map[string]string),
		fields:  make(map[srgFieldKey]string),
		methods: make(map[srgMethodKey]string),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "PK:":
			// package rows carry no identifier mapping
		case "CL:":
			if len(fields) != 3 {
				return nil, fmt.Errorf("srg line %d: malformed CL row", lineNo)
			}
			s.classes[fields[1]] = fields[2]
		case "FD:":
			if len(fields) != 3 {
				return nil, fmt.Errorf("srg line %d: malformed FD row", lineNo)
			}
			owner, name, err := splitMemberPath(fields[1])
			if err != nil {
				return nil, fmt.Errorf("srg line %d: %w", lineNo, err)
			}
			_, newName, err := splitMemberPath(fields[2])
			if err != nil {
				return nil, fmt.Errorf("srg line %d: %w", lineNo, err)
			}
			s.fields[srgFieldKey{owner, name}] = newName
		case "MD:":
			if len(fields) != 5 {
				return nil, fmt.Errorf("srg line %d: malformed MD row", lineNo)
			}
			owner, name, err := splitMemberPath(fields[1])
			if err != nil {
				return nil, fmt.Errorf("srg line %d: %w", lineNo, err)
			}
			_, newName, err := splitMemberPath(fields[3])
			if err != nil {
				return nil, fmt.Errorf("srg line %d: %w", lineNo, err)
			}
			s.methods[srgMethodKey{owner, name, fields[2]}] = newName
		default:
			return nil, fmt.Errorf("srg line %d: unknown row kind %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srg table: %w", err)
	}
	return s, nil
}

// splitMemberPath splits "pkg/Class/member" into owner and member name.
func splitMemberPath(p string) (owner, name string, err error) {
	i := strings.LastIndexByte(p, '/')
	if i <= 0 || i == len(p)-1 {
		return "", "", fmt.Errorf("malformed member path %q", p)
	}
	return p[:i], p[i+1:], nil
}

// MapClassName implements ClassMapping.
func (s *SRG) MapClassName(name string) (string, bool) {
	mapped, ok := s.classes[name]
	return mapped, ok
}

// MapFieldName implements FieldMapping. SRG field rows are unique per
// owner+name, so the descriptor does not participate in the key.
func (s *SRG) MapFieldName(owner, name, _ string) (string, bool) {
	mapped, ok := s.fields[srgFieldKey{owner, name}]
	return mapped, ok
}

// MapMethodName implements MethodMapping.
func (s *SRG) MapMethodName(owner, name, desc string) (string, bool) {
	mapped, ok := s.methods[srgMethodKey{owner, name, desc}]
	return mapped, ok
}
