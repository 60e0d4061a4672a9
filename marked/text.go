package marked

import (
	"image/color"

	"github.com/ByLCY/marker/binding"
	"github.com/ByLCY/marker/effects"
	"github.com/ByLCY/marker/font"
	"github.com/ByLCY/marker/layout"
	"github.com/ByLCY/marker/markup"
)

// Text 是文档级对象：持有原始标记文本、字体、时钟与对齐配置，
// 驱动解析 → 效果处理 → 布局的完整流水线，并缓存派生的布局结果。
// 单个实例由单一更新/渲染线程独占，不支持在嵌套回调里重入 Update。
type Text struct {
	raw  string
	font font.Font

	registry *effects.Registry
	styles   map[string]markup.Style
	data     any

	now  float64
	prev float64

	wrapLimit     float64
	align         string
	verticalAlign string
	boxW, boxH    float64
	stretchFinal  bool

	parsed  []*markup.Char
	display []*markup.Char
	info    layout.Info

	dirty    bool            // 结构性输入变化，必须重排
	placed   []*markup.Char // 上次布局的显示序列，用于条件重排
	measured []string       // 上次布局时各字符的测量串
}

// Options 配置 Text 的构造。零值字段取默认：效果注册表为 Default()，
// 对齐为 start/top，不折行。
type Options struct {
	Font     font.Font
	Registry *effects.Registry
	// Styles 是标签名到样式的映射（通常来自 theme.Theme.Styles）。
	Styles map[string]markup.Style
	// Data 经 binding 插值进文本（${path} 占位符）。
	Data any

	WrapLimit     float64
	Align         string
	VerticalAlign string
	BoxWidth      float64
	BoxHeight     float64
	// StretchFinalLine 让段落末行也参与 justify/letterspace 拉伸。
	StretchFinalLine bool
}

// New 用默认配置构造文档并完成首次解析与布局。
func New(text string, f font.Font) *Text {
	return NewWithOptions(text, Options{Font: f})
}

// NewWithOptions 按配置构造文档并完成首次解析与布局。
func NewWithOptions(text string, opts Options) *Text {
	reg := opts.Registry
	if reg == nil {
		reg = effects.Default()
	}
	t := &Text{
		font:          opts.Font,
		registry:      reg,
		styles:        opts.Styles,
		data:          opts.Data,
		wrapLimit:     opts.WrapLimit,
		align:         opts.Align,
		verticalAlign: opts.VerticalAlign,
		boxW:          opts.BoxWidth,
		boxH:          opts.BoxHeight,
		stretchFinal:  opts.StretchFinalLine,
	}
	t.SetText(text)
	return t
}

// SetText 重新解析文本并重排。时钟保持不变，便于外部继续推进动画。
func (t *Text) SetText(text string) {
	t.raw = text
	interpolated := binding.Interpolate(text, t.data)
	t.parsed = markup.ParseWithStyles(interpolated, t.font, t.styles)
	t.dirty = true
	t.refresh()
}

// Update 推进时钟并重新处理效果。布局只在结构性输入变化或效果替换
// 改变了字形测量串时才重新计算。
func (t *Text) Update(dt float64) {
	t.prev = t.now
	t.now += dt
	t.refresh()
}

// refresh 执行一帧的效果处理，并按需重排。
func (t *Text) refresh() {
	t.display = t.registry.Process(t.parsed, t.now, t.prev)
	if t.dirty || t.displayChanged() {
		t.info = layout.Flow(t.display, t.layoutOptions())
		t.cacheDisplay()
		t.dirty = false
	}
}

func (t *Text) layoutOptions() layout.Options {
	boxW := t.boxW
	if boxW <= 0 {
		boxW = t.wrapLimit
	}
	return layout.Options{
		WrapLimit:        t.wrapLimit,
		Align:            t.align,
		VerticalAlign:    t.verticalAlign,
		BoxWidth:         boxW,
		BoxHeight:        t.boxH,
		StretchFinalLine: t.stretchFinal,
	}
}

// displayChanged 报告显示序列相比上次布局是否有变化：替换覆盖会改变
// 测量串（corrupt、censor），替换展开则每帧生成新的字符对象——两者都
// 需要重排，否则新对象不携带版面坐标。
func (t *Text) displayChanged() bool {
	if len(t.display) != len(t.placed) {
		return true
	}
	for i, c := range t.display {
		if c != t.placed[i] || c.Measures() != t.measured[i] {
			return true
		}
	}
	return false
}

func (t *Text) cacheDisplay() {
	t.placed = t.placed[:0]
	t.measured = t.measured[:0]
	for _, c := range t.display {
		t.placed = append(t.placed, c)
		t.measured = append(t.measured, c.Measures())
	}
}

// Draw 在 (x, y) 起点绘制全部字符。水平对齐配置非法时绘制诊断文本，
// 让配置错误显式可见而不是悄悄回落。
func (t *Text) Draw(x, y float64) {
	if t.font == nil {
		return
	}
	if t.info.InvalidAlign {
		t.font.Draw("INVALID ALIGN: "+t.align, x, y)
		return
	}
	setter, canColor := t.font.(font.ColorSetter)
	for _, c := range t.display {
		text := c.Renders()
		if text == "" {
			continue
		}
		if canColor {
			setter.SetColor(t.drawColor(c))
		}
		c.Font.Draw(text, x+c.X+c.OffsetX, y+c.Y+c.OffsetY)
	}
}

// drawColor 合成最终绘制颜色：颜色覆盖（或调色板回落色）乘以透明度。
func (t *Text) drawColor(c *markup.Char) color.RGBA {
	base := t.registry.Palette().Fallback()
	if c.Color != nil {
		base = *c.Color
	}
	alpha := c.Alpha
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	base.A = uint8(float64(base.A) * alpha)
	return base
}

// SetWrapLimit 设置折行宽度并标记重排。
func (t *Text) SetWrapLimit(w float64) {
	if t.wrapLimit == w {
		return
	}
	t.wrapLimit = w
	t.dirty = true
	t.refresh()
}

// SetAlign 设置水平对齐方式。
func (t *Text) SetAlign(align string) {
	if t.align == align {
		return
	}
	t.align = align
	t.dirty = true
	t.refresh()
}

// SetVerticalAlign 设置垂直对齐方式。
func (t *Text) SetVerticalAlign(v string) {
	if t.verticalAlign == v {
		return
	}
	t.verticalAlign = v
	t.dirty = true
	t.refresh()
}

// SetAlignBox 设置对齐参考框尺寸。
func (t *Text) SetAlignBox(w, h float64) {
	if t.boxW == w && t.boxH == h {
		return
	}
	t.boxW = w
	t.boxH = h
	t.dirty = true
	t.refresh()
}

// Size 返回文本的自然尺寸：最宽行宽与总高。
func (t *Text) Size() (float64, float64) {
	w := 0.0
	for _, ln := range t.info.Lines {
		if ln.Width > w {
			w = ln.Width
		}
	}
	return w, t.info.Height
}

// WrapInfo 返回当前布局的派生信息。
func (t *Text) WrapInfo() layout.Info { return t.info }

// Chars 返回当前显示序列（效果替换之后）。调用方只读使用。
func (t *Text) Chars() []*markup.Char { return t.display }

// Registry 返回效果注册表，供外部订阅事件或调整调色板。
func (t *Text) Registry() *effects.Registry { return t.registry }

// Time 返回累计动画时间。
func (t *Text) Time() float64 { return t.now }
