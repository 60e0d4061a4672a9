package markup

import (
	"strings"

	"github.com/ByLCY/marker/font"
)

// The tag grammar is deliberately lenient: authored content embeds it, so the
// parser never fails. Anything that does not scan as a well-formed tag or
// entity degrades to literal text.

// entities is the fixed character-entity table. Malformed or unknown entities
// pass through literally, including the ampersand.
var entities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"apos": "'",
	"quot": "\"",
}

// StyleEffect is one effect of a reusable style, in declaration order.
type StyleEffect struct {
	Name  string
	Attrs Attributes
}

// Style is an ordered bundle of effects. A tag whose name matches a style
// expands into the bundle; inline tag attributes are merged into every
// constituent effect and win on key collision.
type Style []StyleEffect

// tagUnit is one effect contributed by an open tag. A plain tag contributes a
// single unit; a style tag contributes one unit per style effect.
type tagUnit struct {
	name  string
	attrs Attributes
}

// tagStackEntry tracks one open tag. applied flips to true once any character
// has been emitted inside the tag's span; a tag closed before that synthesizes
// a zero-width filler character so its attributes stay representable.
type tagStackEntry struct {
	name    string
	units   []tagUnit
	applied bool
}

type parser struct {
	src    []rune
	font   font.Font
	styles map[string]Style
	stack  []tagStackEntry
	out    []*Char
}

// Parse converts raw marked-up text into the flat character sequence. Every
// character carries the attribute dictionaries of all tags open at its
// position plus the outer-first effect order list.
func Parse(text string, f font.Font) []*Char {
	return ParseWithStyles(text, f, nil)
}

// ParseWithStyles is Parse with a style table: tag names matching a style
// expand into the style's effect bundle.
func ParseWithStyles(text string, f font.Font, styles map[string]Style) []*Char {
	p := &parser{src: []rune(text), font: f, styles: styles}
	p.run()
	return p.out
}

func (p *parser) run() {
	i := 0
	n := len(p.src)
	for i < n {
		r := p.src[i]
		switch r {
		case '<':
			if next, ok := p.scanTag(i); ok {
				i = next
				continue
			}
			// Not a tag start: literal '<'.
			p.emit("<")
			i++
		case '&':
			if text, next, ok := p.scanEntity(i); ok {
				p.emit(text)
				i = next
				continue
			}
			p.emit("&")
			i++
		case '\r':
			i++
		default:
			p.emit(string(r))
			i++
		}
	}
	// Open tags that never covered a character still get their filler at end
	// of input, keeping the "every opened tag affects at least one character"
	// guarantee for unclosed markup.
	for _, entry := range p.stack {
		if !entry.applied {
			p.emitFiller()
			break
		}
	}
}

// emit appends a character carrying the current tag stack and marks every
// open tag as applied.
func (p *parser) emit(text string) {
	c := &Char{Text: text, Font: p.font, Alpha: 1}
	if len(p.stack) > 0 {
		c.Effects = make(map[string]Attributes)
		for i := range p.stack {
			entry := &p.stack[i]
			entry.applied = true
			for _, u := range entry.units {
				// Inner occurrence wins on key collision; the order list keeps
				// the first (outermost) position of each name.
				merged, ok := c.Effects[u.name]
				if !ok {
					merged = make(Attributes, len(u.attrs))
					c.Effects[u.name] = merged
					c.Order = append(c.Order, u.name)
				}
				for k, v := range u.attrs {
					merged[k] = v
				}
			}
		}
	}
	p.out = append(p.out, c)
}

// emitFiller appends a zero-width character carrying the current stack.
func (p *parser) emitFiller() {
	p.emit("")
}

// scanEntity recognizes &name; against the fixed entity table. Returns the
// decoded text and the index just past the semicolon.
func (p *parser) scanEntity(i int) (string, int, bool) {
	j := i + 1
	var name strings.Builder
	for j < len(p.src) && p.src[j] != ';' {
		r := p.src[j]
		if !isASCIILetter(r) || name.Len() >= 8 {
			return "", 0, false
		}
		name.WriteRune(r)
		j++
	}
	if j >= len(p.src) || name.Len() == 0 {
		return "", 0, false
	}
	text, ok := entities[name.String()]
	if !ok {
		return "", 0, false
	}
	return text, j + 1, true
}

// scanTag attempts to read a complete tag at src[i] (src[i] == '<'). On any
// malformation it reports false and the caller falls back to literal text.
func (p *parser) scanTag(i int) (int, bool) {
	j := i + 1
	if j >= len(p.src) {
		return 0, false
	}
	if p.src[j] == '/' {
		return p.scanCloseTag(j + 1)
	}
	if !isNameStart(p.src[j]) {
		return 0, false
	}

	name, j := p.scanName(j)
	attrs := Attributes{}
	selfClosing := false

	for {
		j = p.skipSpaces(j)
		if j >= len(p.src) {
			return 0, false
		}
		r := p.src[j]
		if r == '/' {
			if j+1 < len(p.src) && p.src[j+1] == '>' {
				selfClosing = true
				j += 2
				break
			}
			return 0, false
		}
		if r == '>' {
			j++
			break
		}
		if !isNameStart(r) {
			return 0, false
		}
		var attrName string
		attrName, j = p.scanName(j)
		if j < len(p.src) && p.src[j] == '=' {
			value, next, ok := p.scanQuoted(j + 1)
			if !ok {
				return 0, false
			}
			attrs[attrName] = value
			j = next
		} else {
			attrs[attrName] = ""
		}
	}

	entry := tagStackEntry{name: name, units: p.expand(name, attrs)}
	p.stack = append(p.stack, entry)
	if selfClosing {
		// A self-closing tag emits exactly one zero-width carrier and closes
		// immediately.
		p.emitFiller()
		p.stack = p.stack[:len(p.stack)-1]
	}
	return j, true
}

// scanCloseTag reads </name>. A matching name pops the innermost open tag;
// a mismatched one is silently ignored with the stack untouched.
func (p *parser) scanCloseTag(j int) (int, bool) {
	if j >= len(p.src) || !isNameStart(p.src[j]) {
		return 0, false
	}
	name, j := p.scanName(j)
	j = p.skipSpaces(j)
	if j >= len(p.src) || p.src[j] != '>' {
		return 0, false
	}
	j++

	if len(p.stack) > 0 {
		top := &p.stack[len(p.stack)-1]
		if top.name == name {
			if !top.applied {
				p.emitFiller()
			}
			p.stack = p.stack[:len(p.stack)-1]
		}
	}
	return j, true
}

// scanQuoted reads a '- or "-delimited attribute value with entity decoding.
func (p *parser) scanQuoted(j int) (string, int, bool) {
	if j >= len(p.src) {
		return "", 0, false
	}
	quote := p.src[j]
	if quote != '\'' && quote != '"' {
		return "", 0, false
	}
	j++
	var b strings.Builder
	for j < len(p.src) {
		r := p.src[j]
		if r == quote {
			return b.String(), j + 1, true
		}
		if r == '&' {
			if text, next, ok := p.scanEntity(j); ok {
				b.WriteString(text)
				j = next
				continue
			}
		}
		b.WriteRune(r)
		j++
	}
	return "", 0, false
}

func (p *parser) scanName(j int) (string, int) {
	start := j
	for j < len(p.src) && isNameChar(p.src[j]) {
		j++
	}
	return string(p.src[start:j]), j
}

func (p *parser) skipSpaces(j int) int {
	for j < len(p.src) && (p.src[j] == ' ' || p.src[j] == '\t' || p.src[j] == '\n' || p.src[j] == '\r') {
		j++
	}
	return j
}

// expand maps a tag to its effect units, going through the style table when
// the name matches a style.
func (p *parser) expand(name string, attrs Attributes) []tagUnit {
	style, ok := p.styles[name]
	if !ok {
		return []tagUnit{{name: name, attrs: attrs}}
	}
	units := make([]tagUnit, 0, len(style))
	for _, eff := range style {
		merged := make(Attributes, len(eff.Attrs)+len(attrs))
		for k, v := range eff.Attrs {
			merged[k] = v
		}
		for k, v := range attrs {
			merged[k] = v
		}
		units = append(units, tagUnit{name: eff.Name, attrs: merged})
	}
	return units
}

func isNameStart(r rune) bool {
	return isASCIILetter(r) || r == '_'
}

func isNameChar(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9') || r == '-' || r == '.'
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
