// Package remap rewrites identifiers inside parsed class files. The central
// pass is Rename, which applies a composite mapping to every class, field,
// method and parameter reference. The remaining transformers are the
// structural pre/post passes that run around it: debug attribute stripping,
// local variable table construction, inner class correction, constructor
// parameter cleanup and access level correction. A Chain applies them in
// declaration order.
package remap

import (
	"fmt"
	"strings"

	"github.com/reforge-tools/reforge/internal/classfile"
)

// Transformer mutates a single parsed class file.
type Transformer interface {
	Name() string
	Transform(cf *classfile.ClassFile) error
}

// Chain applies transformers in order.
type Chain []Transformer

// Apply parses a class file, runs every transformer over it and re-encodes.
func (ch Chain) Apply(data []byte) ([]byte, error) {
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, err
	}
	for _, t := range ch {
		if err := t.Transform(cf); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
	return cf.Bytes()
}

// paramDescriptors splits a method descriptor's parameter list into one
// descriptor per parameter.
func paramDescriptors(desc string) []string {
	var out []string
	i := 1 // skip '('
	for i < len(desc) && desc[i] != ')' {
		start := i
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		if i < len(desc) && desc[i] == 'L' {
			end := strings.IndexByte(desc[i:], ';')
			if end < 0 {
				return out
			}
			i += end + 1
		} else {
			i++
		}
		out = append(out, desc[start:i])
	}
	return out
}

// paramSlots returns the local variable slot occupied by each parameter
// position. Long and double parameters take two slots; instance methods
// shift everything by one for the receiver.
func paramSlots(desc string, static bool) []uint16 {
	descs := paramDescriptors(desc)
	slots := make([]uint16, len(descs))
	slot := uint16(0)
	if !static {
		slot = 1
	}
	for i, d := range descs {
		slots[i] = slot
		if d == "J" || d == "D" {
			slot += 2
		} else {
			slot++
		}
	}
	return slots
}
