package canvasfont

import (
	"fmt"
	"image/color"
	"os"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/marker/font"
)

// Face is a font.Font backed by github.com/tdewolff/canvas. One Face
// corresponds to one loaded font at one size; kerning therefore only
// applies between characters that share the same Face.
type Face struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
	size   float64
	col    color.RGBA
	face   *canvas.FontFace

	ctx *canvas.Context
}

var (
	_ font.Font        = (*Face)(nil)
	_ font.ColorSetter = (*Face)(nil)
)

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// Options configures a Face.
type Options struct {
	// Name is the family name registered with canvas; defaults to "Body".
	Name string
	// Font is the font file (TTF/OTF) to load.
	Font Resource
	// Size is the font size, in the same unit as the surrounding canvas (mm).
	Size float64
	// Style is one of "", "regular", "bold", "italic", "bold italic".
	Style string
	// Color is the initial fill color; defaults to near-black.
	Color color.RGBA
}

// New loads a font file and returns a Face ready for measuring.
// Draw 在绑定绘制上下文（SetContext）之前不产生任何输出。
func New(opts Options) (*Face, error) {
	data := opts.Font.Bytes
	if len(data) == 0 {
		if opts.Font.Path == "" {
			return nil, fmt.Errorf("字体缺少数据来源")
		}
		b, err := os.ReadFile(opts.Font.Path)
		if err != nil {
			return nil, fmt.Errorf("读取字体 %s: %w", opts.Font.Path, err)
		}
		data = b
	}
	name := opts.Name
	if name == "" {
		name = "Body"
	}
	style := parseFontStyle(opts.Style)
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, fmt.Errorf("加载字体 %s: %w", name, err)
	}
	col := opts.Color
	if col == (color.RGBA{}) {
		col = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	}
	size := opts.Size
	if size <= 0 {
		size = 12
	}
	f := &Face{family: family, style: style, size: size, col: col}
	f.rebuild()
	return f, nil
}

func parseFontStyle(s string) canvas.FontStyle {
	switch s {
	case "bold":
		return canvas.FontBold
	case "italic":
		return canvas.FontItalic
	case "bold italic", "bold-italic":
		return canvas.FontBold | canvas.FontItalic
	default:
		return canvas.FontRegular
	}
}

func (f *Face) rebuild() {
	f.face = f.family.Face(f.size, f.col, f.style, canvas.FontNormal)
}

// SetContext binds the drawing target. Measuring works without one.
func (f *Face) SetContext(ctx *canvas.Context) { f.ctx = ctx }

// SetColor changes the fill color for subsequent draws.
func (f *Face) SetColor(c color.RGBA) {
	if f.col == c {
		return
	}
	f.col = c
	f.rebuild()
}

// Width 返回文本的排版宽度。canvas 的 TextWidth 已包含字符串内部的字偶距。
func (f *Face) Width(text string) float64 {
	if text == "" {
		return 0
	}
	return f.face.TextWidth(text)
}

// Height 返回行高：includeLineGap 时为完整行高，否则仅为字面高度。
func (f *Face) Height(includeLineGap bool) float64 {
	m := f.face.Metrics()
	if includeLineGap {
		return m.LineHeight
	}
	return m.Ascent + m.Descent
}

// Kerning 通过测量差值求相邻字符的字偶距：
// Width(left+right) − Width(left) − Width(right)。
func (f *Face) Kerning(left, right string) float64 {
	if left == "" || right == "" {
		return 0
	}
	return f.face.TextWidth(left+right) - f.face.TextWidth(left) - f.face.TextWidth(right)
}

// Draw 在 (x, y) 处绘制文本，y 为行顶部；基线为顶部加上升部。
func (f *Face) Draw(text string, x, y float64) {
	if f.ctx == nil || text == "" {
		return
	}
	line := canvas.NewTextLine(f.face, text, canvas.Left)
	baseline := y + f.face.Metrics().Ascent
	f.ctx.DrawText(x, baseline, line)
}
