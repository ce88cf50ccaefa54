// Package path models property locations as typed segments.
//
// The string form uses "." between object members and a "[0]" suffix for
// "first element of the array at this position", for example
// "orders[0].lines[0].sku". Arrays are sampled through their first element
// only, so the element marker never carries any other index.
package path

import (
	"strings"

	"github.com/ohler55/ojg/jp"
)

// ElementMarker is the string form of an array element segment.
const ElementMarker = "[0]"

// Kind distinguishes object members from array elements.
type Kind int

const (
	Field Kind = iota
	Element
)

// Segment is one step of a Path.
type Segment struct {
	Kind Kind
	Name string
}

// Path is an ordered sequence of segments from the document root.
type Path []Segment

// F returns a field segment.
func F(name string) Segment { return Segment{Kind: Field, Name: name} }

// E returns an array element segment.
func E() Segment { return Segment{Kind: Element} }

// Parse converts the string form into a Path. It never fails: unexpected
// input is read as field names.
func Parse(s string) Path {
	if s == "" {
		return nil
	}
	var p Path
	for _, part := range strings.Split(s, ".") {
		elements := 0
		for strings.HasSuffix(part, ElementMarker) {
			part = strings.TrimSuffix(part, ElementMarker)
			elements++
		}
		if part != "" || elements == 0 {
			p = append(p, F(part))
		}
		for i := 0; i < elements; i++ {
			p = append(p, E())
		}
	}
	return p
}

// String formats the path back to its string form.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if seg.Kind == Element {
			b.WriteString(ElementMarker)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Name)
	}
	return b.String()
}

// Key returns the name of the last field segment.
func (p Path) Key() string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Kind == Field {
			return p[i].Name
		}
	}
	return ""
}

// Level is the nesting depth: the number of "." separators in the string form.
func (p Path) Level() int {
	level := 0
	for i, seg := range p {
		if seg.Kind == Field && i > 0 {
			level++
		}
	}
	return level
}

// Equal reports whether two paths have identical segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a (not necessarily strict) segment prefix of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// IsDescendantOf reports whether p lives strictly below ancestor.
func (p Path) IsDescendantOf(ancestor Path) bool {
	return len(ancestor) > 0 && len(p) > len(ancestor) && p.HasPrefix(ancestor)
}

// Parent returns the nearest strict prefix that ends in a field, skipping
// element markers. "orders[0].id" has parent "orders"; "[0].id" has none.
func (p Path) Parent() (Path, bool) {
	end := len(p)
	for end > 0 && p[end-1].Kind == Element {
		end--
	}
	if end == 0 {
		return nil, false
	}
	end-- // drop the leaf field
	for end > 0 && p[end-1].Kind == Element {
		end--
	}
	if end == 0 {
		return nil, false
	}
	return p[:end:end], true
}

// Ancestors returns every strict ancestor, root first.
func (p Path) Ancestors() []Path {
	var chain []Path
	for cur, ok := p.Parent(); ok; cur, ok = cur.Parent() {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// HasElements reports whether the path passes through an array element.
func (p Path) HasElements() bool {
	for _, seg := range p {
		if seg.Kind == Element {
			return true
		}
	}
	return false
}

// ArrayRoots returns the prefixes immediately followed by an element marker,
// outermost first. For "orders[0].lines[0].sku" that is "orders" and
// "orders[0].lines".
func (p Path) ArrayRoots() []Path {
	var roots []Path
	for i := 0; i < len(p); i++ {
		if p[i].Kind == Element && (i == 0 || p[i-1].Kind == Field) {
			roots = append(roots, p[:i:i])
		}
	}
	return roots
}

// Relative strips prefix and the element marker that follows it.
func (p Path) Relative(prefix Path) Path {
	if !p.HasPrefix(prefix) {
		return p
	}
	rest := p[len(prefix):]
	if len(rest) > 0 && rest[0].Kind == Element {
		rest = rest[1:]
	}
	return rest
}

// Child returns a copy of p extended by a field.
func (p Path) Child(name string) Path {
	return p.append(F(name))
}

// Element returns a copy of p extended by an element marker.
func (p Path) Element() Path {
	return p.append(E())
}

func (p Path) append(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Expr converts the path into a JSONPath expression such as $.orders[0].sku.
func (p Path) Expr() jp.Expr {
	x := jp.R()
	for _, seg := range p {
		if seg.Kind == Element {
			x = x.N(0)
		} else {
			x = x.C(seg.Name)
		}
	}
	return x
}
