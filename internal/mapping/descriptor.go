package mapping

import "strings"

// MapDescriptor rewrites every class name embedded in a field or method
// descriptor using mapClass. Primitive and array markers pass through.
func MapDescriptor(desc string, mapClass func(string) string) string {
	var b strings.Builder
	b.Grow(len(desc))

	for i := 0; i < len(desc); {
		c := desc[i]
		if c != 'L' {
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			// malformed tail, keep as-is
			b.WriteString(desc[i:])
			break
		}
		name := desc[i+1 : i+end]
		b.WriteByte('L')
		b.WriteString(mapClass(name))
		b.WriteByte(';')
		i += end + 1
	}
	return b.String()
}

// MapSignature rewrites class names inside a generic signature
// (field, method or class form). Type variables, wildcards and primitives
// pass through. Inner-class suffix segments (`.Inner`) are resolved against
// the mapped form of `Outer$Inner` when such a mapping exists.
func MapSignature(sig string, mapClass func(string) string) string {
	var b strings.Builder
	b.Grow(len(sig))

	i := 0
	for i < len(sig) {
		c := sig[i]
		switch c {
		case 'L':
			i = mapClassTypeSignature(sig, i, &b, mapClass)
		case 'T':
			// Type variable reference: copy through to the closing ';'.
			// Inside the formal parameter section an identifier is followed
			// by ':' before any ';', so copy only up to the ':' there and
			// let the bound's class names still get remapped.
			end := strings.IndexByte(sig[i:], ';')
			if end < 0 {
				b.WriteString(sig[i:])
				return b.String()
			}
			if colon := strings.IndexByte(sig[i:i+end], ':'); colon >= 0 {
				b.WriteString(sig[i : i+colon])
				i += colon
				continue
			}
			b.WriteString(sig[i : i+end+1])
			i += end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// mapClassTypeSignature consumes a ClassTypeSignature starting at the 'L'
// and writes its mapped form, returning the index after the trailing ';'.
func mapClassTypeSignature(sig string, start int, b *strings.Builder, mapClass func(string) string) int {
	i := start + 1
	nameStart := i
	base := "" // accumulated binary name incl. $ separators for inner segments

	flushSegment := func(sep string) {
		seg := sig[nameStart:i]
		if base == "" {
			base = seg
		} else {
			base += sep + seg
		}
	}

	writeMapped := func(first bool) {
		mapped := mapClass(base)
		if first {
			b.WriteByte('L')
			b.WriteString(mapped)
		} else {
			// inner segment: emit only the simple-name suffix
			b.WriteByte('.')
			if dollar := strings.LastIndexByte(mapped, '$'); dollar >= 0 {
				b.WriteString(mapped[dollar+1:])
			} else if slash := strings.LastIndexByte(mapped, '/'); slash >= 0 {
				b.WriteString(mapped[slash+1:])
			} else {
				b.WriteString(mapped)
			}
		}
	}

	first := true
	for i < len(sig) {
		switch sig[i] {
		case ';':
			flushSegment("$")
			writeMapped(first)
			b.WriteByte(';')
			return i + 1
		case '<':
			flushSegment("$")
			writeMapped(first)
			first = false
			// recurse over the type arguments
			b.WriteByte('<')
			depth := 1
			i++
			argStart := i
			for i < len(sig) && depth > 0 {
				switch sig[i] {
				case '<':
					depth++
				case '>':
					depth--
				}
				i++
			}
			b.WriteString(MapSignature(sig[argStart:i-1], mapClass))
			b.WriteByte('>')
			if i < len(sig) && sig[i] == '.' {
				i++
				nameStart = i
			} else if i < len(sig) && sig[i] == ';' {
				b.WriteByte(';')
				return i + 1
			}
		case '.':
			flushSegment("$")
			writeMapped(first)
			first = false
			i++
			nameStart = i
		default:
			i++
		}
	}
	// malformed tail
	b.WriteString(sig[nameStart:])
	return len(sig)
}
