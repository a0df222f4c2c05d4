// Package keyword renames identifiers that collide with reserved words of
// the target source language. Replacement names are derived from a
// cryptographic digest of the identifier's full identity tuple, so two runs
// over the same input always produce the same names, and distinct
// identifiers practically never share one.
package keyword

import (
	"crypto/sha256"
	"encoding/hex"
)

// reserved is the closed set of Java language keywords. Membership is an
// exact, case-sensitive match.
var reserved = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {},
	"byte": {}, "case": {}, "catch": {}, "char": {},
	"class": {}, "const": {}, "continue": {}, "default": {},
	"do": {}, "double": {}, "else": {}, "enum": {},
	"extends": {}, "final": {}, "finally": {}, "float": {},
	"for": {}, "goto": {}, "if": {}, "implements": {},
	"import": {}, "instanceof": {}, "int": {}, "interface": {},
	"long": {}, "native": {}, "new": {}, "package": {},
	"private": {}, "protected": {}, "public": {}, "return": {},
	"short": {}, "static": {}, "strictfp": {}, "super": {},
	"switch": {}, "synchronized": {}, "this": {}, "throw": {},
	"throws": {}, "transient": {}, "try": {}, "void": {},
	"volatile": {}, "while": {},
}

// IsReserved reports whether name is a reserved word.
func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

// Resolver generates deterministic replacement names for reserved-word
// collisions. It holds no state across invocations; construct one per
// transform pass (or per worker).
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver { return &Resolver{} }

// MapClassName replaces a reserved class name with class_<digest>. The
// package prefix of an internal name never collides (reserved words contain
// no '/'), so only simple names ever match.
func (r *Resolver) MapClassName(name string) (string, bool) {
	if !IsReserved(name) {
		return "", false
	}
	return "rf_class_" + digest(name), true
}

// MapFieldName replaces a reserved field name, scoped by owner and
// descriptor so equal names under different owners diverge.
func (r *Resolver) MapFieldName(owner, name, desc string) (string, bool) {
	if !IsReserved(name) {
		return "", false
	}
	return "rf_field_" + digest(owner, name, desc), true
}

// MapMethodName replaces a reserved method name, scoped by owner and
// descriptor.
func (r *Resolver) MapMethodName(owner, name, desc string) (string, bool) {
	if !IsReserved(name) {
		return "", false
	}
	return "rf_method_" + digest(owner, name, desc), true
}

// digest hashes the identity tuple with a NUL separator between fields so
// that ("ab","c") and ("a","bc") cannot collide by concatenation.
func digest(fields ...string) string {
	h := sha256.New()
	for i, f := range fields {
		if i != 0 {
			h.Write([]byte{0x00})
		}
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}
