package font

import "image/color"

// Font 是排版核心消费的字体能力接口：测量与绘制均通过它完成，
// 核心自身不接触任何显示表面。实现方可以是 canvasfont 这样的真实后端，
// 也可以是测试中的固定宽度桩实现。
type Font interface {
	// Width 返回文本的前进宽度。
	Width(text string) float64
	// Height 返回行高；includeLineGap 为 true 时包含行间距。
	Height(includeLineGap bool) float64
	// Kerning 返回 left 与 right 相邻排布时的字距调整量。
	Kerning(left, right string) float64
	// Draw 在 (x, y) 处绘制文本，y 为行顶部坐标。
	Draw(text string, x, y float64)
}

// ColorSetter 是可选能力：支持按字符着色的后端实现它，
// marked.Text 在绘制前会探测并调用。
type ColorSetter interface {
	SetColor(c color.RGBA)
}

// KerningBetween 仅在两个字符共享同一个字体对象时查询字距，
// 跨字体的字距定义为零。
func KerningBetween(prev, cur Font, left, right string) float64 {
	if prev == nil || cur == nil || prev != cur {
		return 0
	}
	return cur.Kerning(left, right)
}
