package markup

import (
	"image/color"
	"unicode"
	"unicode/utf8"

	"github.com/ByLCY/marker/font"
)

// Attributes 保存单个效果的属性表（字符串键值对）。
type Attributes map[string]string

// Char 是文本的原子单元：通常是一个字符，偶尔是替换效果生成的多字符串。
// 布局写入 X/Y；效果每帧重置并写入 OffsetX/OffsetY、Replaced 与 Color。
// 不变式：效果应用顺序始终遵循 Order（最外层标签在前）；
// 字符级处理按外→内进行，run 级处理按内→外进行。
type Char struct {
	Text string
	Font font.Font

	// 布局坐标（排版空间）。
	X, Y float64

	// 每帧瞬态字段：Process 开始时全部重置。
	OffsetX, OffsetY float64
	Replaced         string      // 替换效果写入的渲染串，空表示未替换
	Color            *color.RGBA // 颜色覆盖，nil 表示未设置
	Alpha            float64     // 不透明度 0..1，叠加在颜色之上
	Hidden           bool        // 本帧不绘制，但保留排版宽度（typewriter 未揭示）

	// Disabled 由布局设置：该字符不应被渲染（例如被折行吞掉的空格）。
	Disabled bool

	// Effects 为效果名到属性表的映射；Order 给出该字符的效果嵌套顺序，
	// 最外层标签排在最前，且不含重复名。
	Effects map[string]Attributes
	Order   []string

	// Generated 标记由替换效果生成的字符：它们参与字符级处理，
	// 但返回的替换列表会被丢弃，避免替换链无限展开。
	Generated bool
}

// Measures 返回用于测量的字符串：替换覆盖优先，隐藏不影响宽度
// （typewriter 逐字揭示不得引起重排）。
func (c *Char) Measures() string {
	if c.Replaced != "" {
		return c.Replaced
	}
	return c.Text
}

// Renders 返回最终绘制的字符串，隐藏或被布局禁用时为空。
func (c *Char) Renders() string {
	if c.Disabled || c.Hidden {
		return ""
	}
	return c.Measures()
}

// Width 返回当前测量串的前进宽度。
func (c *Char) Width() float64 {
	if c.Font == nil {
		return 0
	}
	return c.Font.Width(c.Measures())
}

// LineHeight 返回该字符所在字体的行高（含行间距）。
func (c *Char) LineHeight() float64 {
	if c.Font == nil {
		return 0
	}
	return c.Font.Height(true)
}

// ResetTransient 清空每帧重写的瞬态字段。Disabled 不在其列：
// 它由布局拥有，布局被跳过的帧里必须保持原值。
func (c *Char) ResetTransient() {
	c.OffsetX = 0
	c.OffsetY = 0
	c.Replaced = ""
	c.Color = nil
	c.Alpha = 1
	c.Hidden = false
}

// HasEffect 报告该字符是否携带指定效果。
func (c *Char) HasEffect(name string) bool {
	_, ok := c.Effects[name]
	return ok
}

// IsLineBreak 报告该字符是否为显式换行。
func (c *Char) IsLineBreak() bool {
	return c.Text == "\n"
}

// IsSpace 报告该字符是否为理想折行点（空格类字符）。
func (c *Char) IsSpace() bool {
	if c.IsLineBreak() {
		return false
	}
	r, size := utf8.DecodeRuneInString(c.Text)
	return size == len(c.Text) && unicode.IsSpace(r)
}

// IsSymbol 报告该字符是否为可见符号：非空、可打印且不是空白或控制字符。
// corrupt 效果与 letterspace 对齐只作用于符号。
func (c *Char) IsSymbol() bool {
	if c.Text == "" {
		return false
	}
	for _, r := range c.Text {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// IsPunctuation 报告该字符是否为标点（typewriter 的停顿判断）。
func (c *Char) IsPunctuation() bool {
	r, size := utf8.DecodeRuneInString(c.Text)
	return size == len(c.Text) && unicode.IsPunct(r)
}

// clone 复制一个字符用于替换展开，效果表按引用共享。
func (c *Char) clone(text string) *Char {
	return &Char{
		Text:      text,
		Font:      c.Font,
		Effects:   c.Effects,
		Order:     c.Order,
		Generated: true,
	}
}

// NewGenerated 以 base 的效果上下文创建一个替换字符，
// 供替换类效果在字符级函数中构造返回列表。
func NewGenerated(base *Char, text string) *Char {
	return base.clone(text)
}
