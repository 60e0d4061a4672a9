package layout

import (
	"math"

	"github.com/ByLCY/marker/font"
	"github.com/ByLCY/marker/markup"
)

// 本包实现折行与对齐：贪心折行 + 理想折行点回退，水平方向支持
// start/center/end/justify/letterspace，垂直方向相对参考框对齐。
// 所有坐标写回字符本身（排版空间，原点在左上角）。

// 水平对齐方式。start/left、center/middle、end/right 互为别名。
const (
	AlignStart       = "start"
	AlignCenter      = "center"
	AlignEnd         = "end"
	AlignJustify     = "justify"
	AlignLetterspace = "letterspace"
)

// 垂直对齐方式。
const (
	VAlignTop    = "top"
	VAlignMiddle = "middle"
	VAlignBottom = "bottom"
)

// Options 配置一次布局计算。
type Options struct {
	// WrapLimit 是折行宽度，<=0 表示不折行。
	WrapLimit float64
	// Align 是水平对齐方式；未知值按 start 布局并在 Info 中标记，
	// 由绘制方以诊断文本显式暴露配置错误。
	Align string
	// VerticalAlign 是垂直对齐方式，默认 top。
	VerticalAlign string
	// BoxWidth/BoxHeight 是对齐参考框尺寸。
	BoxWidth, BoxHeight float64
	// StretchFinalLine 为 true 时段落末行也参与 justify/letterspace
	// 拉伸；默认关闭，对齐排版的段落末行保持自然宽度。
	StretchFinalLine bool
}

// Line 描述一行：display 序列上的 [Start, End) 区间、
// 自然宽度、空格数、符号数与行高。
type Line struct {
	Start, End int
	Width      float64
	Spaces     int
	Symbols    int
	Height     float64
	// EndsParagraph 标记该行以显式换行结束（或为全文末行），
	// 默认不参与拉伸。
	EndsParagraph bool
}

// Info 是布局的派生结果缓存。
type Info struct {
	Lines  []Line
	Height float64
	// InvalidAlign 在 Options.Align 不是已知值时为 true。
	InvalidAlign bool
}

// Flow 计算折行并给每个字符赋绝对坐标。效果替换会改变字形宽度，
// 因此必须在效果处理之后调用。
func Flow(chars []*markup.Char, opts Options) Info {
	for _, c := range chars {
		c.Disabled = false
	}

	info := Info{}
	info.Lines = wrap(chars, opts.WrapLimit)
	if len(info.Lines) > 0 {
		info.Lines[len(info.Lines)-1].EndsParagraph = true
	}
	for _, ln := range info.Lines {
		info.Height += ln.Height
	}

	hFactor, ok := alignFactor(opts.Align)
	info.InvalidAlign = !ok

	vShift := verticalFactor(opts.VerticalAlign) * (opts.BoxHeight - info.Height)
	y := 0.0
	for _, ln := range info.Lines {
		placeLine(chars, ln, opts, hFactor, y+vShift)
		y += ln.Height
	}
	return info
}

// wrap 贪心折行：宽度（含字距）累计不超限就继续收字符；空格是理想
// 折行点，溢出时回退到最近的空格（该空格被吞掉，不渲染也不计宽）；
// 没有理想点时强制在至少一个字符后断行。显式换行总是结束当前行，
// 且会连带吸收紧随其后的理想折行点字符。
func wrap(chars []*markup.Char, limit float64) []Line {
	var lines []Line
	i := 0
	lineStart := 0
	width := 0.0
	idealIdx := -1
	idealWidth := 0.0
	var prev *markup.Char

	startLine := func(at int) {
		lineStart = at
		width = 0
		idealIdx = -1
		idealWidth = 0
		prev = nil
	}

	emit := func(end int, w float64, endsParagraph bool) {
		lines = append(lines, summarize(chars, lineStart, end, w, endsParagraph))
	}

	for i < len(chars) {
		c := chars[i]
		if c.IsLineBreak() {
			c.Disabled = true
			end := i + 1
			if end < len(chars) && chars[end].IsSpace() {
				chars[end].Disabled = true
				end++
			}
			emit(end, width, true)
			i = end
			startLine(end)
			continue
		}

		cw := c.Width()
		kern := 0.0
		if prev != nil {
			kern = font.KerningBetween(prev.Font, c.Font, prev.Measures(), c.Measures())
		}
		if limit > 0 && i > lineStart && width+kern+cw > limit {
			if c.IsSpace() {
				// 溢出的正是空格：它本身就是折行点，吞掉后在此断行。
				c.Disabled = true
				emit(i+1, width, false)
				i++
				startLine(i)
				continue
			}
			if idealIdx >= 0 {
				// 回退到理想折行点，吞掉该空格后从其后重新累计。
				chars[idealIdx].Disabled = true
				emit(idealIdx+1, idealWidth, false)
				i = idealIdx + 1
				startLine(i)
			} else {
				emit(i, width, false)
				startLine(i)
			}
			continue
		}

		if c.IsSpace() {
			idealIdx = i
			idealWidth = width
		}
		width += kern + cw
		prev = c
		i++
	}
	if lineStart < len(chars) || len(lines) == 0 {
		emit(len(chars), width, true)
	} else if lines[len(lines)-1].EndsParagraph {
		// 文本以显式换行收尾：补一个空的末行，让尾部空行参与总高。
		lines = append(lines, Line{
			Start:         len(chars),
			End:           len(chars),
			Height:        lines[len(lines)-1].Height,
			EndsParagraph: true,
		})
	}
	return lines
}

// summarize 统计一行的空格数、符号数与行高（取行内最高字符的行高）。
func summarize(chars []*markup.Char, start, end int, width float64, endsParagraph bool) Line {
	ln := Line{Start: start, End: end, Width: width, EndsParagraph: endsParagraph}
	for _, c := range chars[start:end] {
		if h := c.LineHeight(); h > ln.Height {
			ln.Height = h
		}
		if c.Disabled {
			continue
		}
		if c.IsSpace() {
			ln.Spaces++
		}
		if c.IsSymbol() {
			ln.Symbols++
		}
	}
	return ln
}

// placeLine 依据对齐方式给一行内的字符赋 (x, y)。
func placeLine(chars []*markup.Char, ln Line, opts Options, hFactor float64, y float64) {
	x := hFactor * (opts.BoxWidth - ln.Width)

	stretch := !ln.EndsParagraph || opts.StretchFinalLine
	spaceExtra := 0.0
	symbolGap := 0.0
	switch opts.Align {
	case AlignJustify:
		if stretch && ln.Spaces > 0 {
			spaceExtra = math.Max(0, opts.BoxWidth-ln.Width) / float64(ln.Spaces)
		}
		x = 0
	case AlignLetterspace:
		if stretch && ln.Symbols > 1 {
			symbolGap = math.Max(0, opts.BoxWidth-ln.Width) / float64(ln.Symbols-1)
		}
		x = 0
	}

	cursor := x
	seenSymbol := false
	var prev *markup.Char
	for _, c := range chars[ln.Start:ln.End] {
		if c.Disabled {
			c.X = cursor
			c.Y = y
			continue
		}
		if prev != nil {
			cursor += font.KerningBetween(prev.Font, c.Font, prev.Measures(), c.Measures())
		}
		if symbolGap > 0 && seenSymbol && c.IsSymbol() {
			cursor += symbolGap
		}
		if spaceExtra > 0 && c.IsSpace() {
			cursor += spaceExtra / 2
		}
		c.X = cursor
		c.Y = y
		cursor += c.Width()
		if spaceExtra > 0 && c.IsSpace() {
			cursor += spaceExtra / 2
		}
		if c.IsSymbol() {
			seenSymbol = true
		}
		prev = c
	}
}

// alignFactor 返回水平偏移系数；未知对齐方式回落到 start 并报告 false。
func alignFactor(align string) (float64, bool) {
	switch align {
	case "", AlignStart, "left":
		return 0, true
	case AlignCenter, "middle":
		return 0.5, true
	case AlignEnd, "right":
		return 1, true
	case AlignJustify, AlignLetterspace:
		return 0, true
	default:
		return 0, false
	}
}

func verticalFactor(v string) float64 {
	switch v {
	case VAlignMiddle, "center":
		return 0.5
	case VAlignBottom:
		return 1
	default:
		return 0
	}
}
