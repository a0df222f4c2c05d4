package remap

import (
	"github.com/reforge-tools/reforge/internal/classfile"
)

// AccessCorrection widens visibility modifiers ahead of decompilation.
// Obfuscators narrow access where the verifier permits it, which breaks the
// inheritance assumptions decompilers rely on to resolve inherited members
// and overloads. Classes and fields are promoted to public; methods are
// promoted unless private, since private methods never participate in
// dispatch. The promotion does not alter runtime behavior.
type AccessCorrection struct{}

// Name implements Transformer.
func (t *AccessCorrection) Name() string { return "access-correction" }

// Transform implements Transformer.
func (t *AccessCorrection) Transform(cf *classfile.ClassFile) error {
	cf.Access = promote(cf.Access)
	for i := range cf.Fields {
		cf.Fields[i].Access = promote(cf.Fields[i].Access)
	}
	for i := range cf.Methods {
		if cf.Methods[i].Access&classfile.AccPrivate == 0 {
			cf.Methods[i].Access = promote(cf.Methods[i].Access)
		}
	}
	return nil
}

func promote(access uint16) uint16 {
	return access&^(classfile.AccPrivate|classfile.AccProtected) | classfile.AccPublic
}
