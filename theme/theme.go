package theme

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/marker/markup"
)

// 主题 DSL 声明调色板颜色与可复用样式：
//
//	theme demo {
//	  color danger #ff2040
//	  style shout {
//	    shake: { amount: "2", speed: "3" }
//	    color: { value: danger }
//	  }
//	  style alert extends shout {
//	    color: { value: "red" }
//	  }
//	}
//
// 样式名可直接用作标记标签，展开为其效果集合。

var (
	themeLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[{}:,;]`},
	})

	themeParser = participle.MustBuild[Document](
		participle.Lexer(themeLexer),
		participle.Elide("Whitespace", "LineComment"),
	)
)

// Document is the root AST node for a theme file.
type Document struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"Newline* 'theme' @Ident"`
	Entries []*Entry       `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Entry is a single top-level declaration (color or style).
type Entry struct {
	Color *ColorDecl `parser:"  @@"`
	Style *StyleDecl `parser:"| @@"`
}

// ColorDecl names a palette color.
type ColorDecl struct {
	Name  string `parser:"'color' @Ident"`
	Value string `parser:"@Color"`
}

// StyleDecl bundles effects under a reusable name, with optional inheritance.
type StyleDecl struct {
	Name    string        `parser:"'style' @Ident"`
	Extends string        `parser:"( 'extends' @Ident )?"`
	Effects []*EffectDecl `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// EffectDecl assigns an attribute object to an effect name.
type EffectDecl struct {
	Name  string      `parser:"@Ident ':'"`
	Attrs []*AttrDecl `parser:"'{' Newline* ( @@ ( (',' | ';' | Newline) Newline* @@ )* )? Newline* '}'"`
}

// AttrDecl is one effect attribute. String values are unquoted on capture.
type AttrDecl struct {
	Key   string    `parser:"@Ident ':'"`
	Value AttrValue `parser:"@@"`
}

// AttrValue accepts quoted strings, bare numbers, color literals and idents.
type AttrValue struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
}

func (v AttrValue) text() string {
	switch {
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Theme 是解析并完成样式继承后的主题。
type Theme struct {
	Name   string
	Colors map[string]color.RGBA
	Styles map[string]markup.Style
}

// Parse 从 io.Reader 解析主题。
func Parse(r io.Reader) (*Theme, error) {
	doc, err := themeParser.Parse("", r)
	if err != nil {
		return nil, err
	}
	return resolve(doc)
}

// ParseString 从字符串解析主题。
func ParseString(input string) (*Theme, error) {
	doc, err := themeParser.ParseString("", input)
	if err != nil {
		return nil, err
	}
	return resolve(doc)
}

// Apply 把主题里的颜色写入调色板。
func (t *Theme) Apply(p *Palette) {
	for name, c := range t.Colors {
		p.Set(name, c)
	}
}

// resolve 收集颜色与样式，并展开样式继承（DFS，检测循环）。
func resolve(doc *Document) (*Theme, error) {
	t := &Theme{
		Name:   doc.Name,
		Colors: map[string]color.RGBA{},
		Styles: map[string]markup.Style{},
	}

	raw := map[string]*StyleDecl{}
	for _, entry := range doc.Entries {
		switch {
		case entry.Color != nil:
			c, err := ParseColor(entry.Color.Value)
			if err != nil {
				return nil, fmt.Errorf("颜色 %s: %w", entry.Color.Name, err)
			}
			t.Colors[entry.Color.Name] = c
		case entry.Style != nil:
			raw[entry.Style.Name] = entry.Style
		}
	}

	visiting := map[string]bool{}
	var dfs func(name string) (markup.Style, error)
	dfs = func(name string) (markup.Style, error) {
		if style, ok := t.Styles[name]; ok {
			return style, nil
		}
		decl, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return nil, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		var style markup.Style
		if decl.Extends != "" {
			parent, err := dfs(decl.Extends)
			if err != nil {
				return nil, err
			}
			style = append(style, cloneStyle(parent)...)
		}
		for _, eff := range decl.Effects {
			attrs := markup.Attributes{}
			for _, a := range eff.Attrs {
				attrs[a.Key] = a.Value.text()
			}
			style = mergeEffect(style, eff.Name, attrs)
		}

		t.Styles[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range raw {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// mergeEffect 覆盖同名效果的属性（子样式优先），新效果追加到末尾。
func mergeEffect(style markup.Style, name string, attrs markup.Attributes) markup.Style {
	for i := range style {
		if style[i].Name == name {
			for k, v := range attrs {
				style[i].Attrs[k] = v
			}
			return style
		}
	}
	return append(style, markup.StyleEffect{Name: name, Attrs: attrs})
}

func cloneStyle(style markup.Style) markup.Style {
	out := make(markup.Style, len(style))
	for i, eff := range style {
		attrs := make(markup.Attributes, len(eff.Attrs))
		for k, v := range eff.Attrs {
			attrs[k] = v
		}
		out[i] = markup.StyleEffect{Name: eff.Name, Attrs: attrs}
	}
	return out
}

// ParseColor 解析 #rgb、#rrggbb 或 #rrggbbaa 颜色字面量。
func ParseColor(value string) (color.RGBA, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		return color.RGBA{
			R: mustHex(strings.Repeat(string(value[0]), 2)),
			G: mustHex(strings.Repeat(string(value[1]), 2)),
			B: mustHex(strings.Repeat(string(value[2]), 2)),
			A: 255,
		}, nil
	case 6:
		return color.RGBA{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
			A: 255,
		}, nil
	case 8:
		return color.RGBA{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
			A: mustHex(value[6:8]),
		}, nil
	default:
		return color.RGBA{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) uint8 {
	v, _ := strconv.ParseUint(s, 16, 8)
	return uint8(v)
}
