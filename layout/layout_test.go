package layout

import (
	"math"
	"testing"

	"github.com/ByLCY/marker/markup"
)

// stubFont 是等宽测试字体：每字符宽 10，行高 12。
type stubFont struct {
	kern float64
}

func (f *stubFont) Width(text string) float64 {
	return 10 * float64(len([]rune(text)))
}
func (f *stubFont) Height(includeLineGap bool) float64 {
	if includeLineGap {
		return 12
	}
	return 10
}
func (f *stubFont) Kerning(left, right string) float64 { return f.kern }
func (f *stubFont) Draw(text string, x, y float64)     {}

func charsOf(text string, f *stubFont) []*markup.Char {
	return markup.Parse(text, f)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWrapRespectsLimit(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("aaaa aaaa aaaa", f)
	info := Flow(chars, Options{WrapLimit: 50})

	if len(info.Lines) != 3 {
		t.Fatalf("期望 3 行，得到 %d", len(info.Lines))
	}
	for i, ln := range info.Lines {
		if ln.Width > 50 {
			t.Fatalf("第 %d 行宽度 %g 超过限制", i, ln.Width)
		}
	}
}

func TestIdealWrapPointAbsorbsSpace(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("hello world", f)
	info := Flow(chars, Options{WrapLimit: 60})

	if len(info.Lines) != 2 {
		t.Fatalf("期望 2 行，得到 %d", len(info.Lines))
	}
	// 折行点空格被吞掉：不渲染也不计入行宽。
	if !chars[5].Disabled {
		t.Fatalf("折行点空格应被禁用")
	}
	if chars[5].Renders() != "" {
		t.Fatalf("被吞掉的空格不应渲染")
	}
	if !approx(info.Lines[0].Width, 50) {
		t.Fatalf("第一行宽度应为 50（不含被吞掉的空格），得到 %g", info.Lines[0].Width)
	}
	if info.Lines[1].Start != 6 {
		t.Fatalf("第二行应从空格之后开始，得到 %d", info.Lines[1].Start)
	}
	if !approx(info.Lines[1].Width, 50) {
		t.Fatalf("第二行宽度应为 50，得到 %g", info.Lines[1].Width)
	}
}

// 恰好在行宽边界溢出的空格本身就是折行点：行应收下空格之前的全部
// 内容，而不是回退到更早的空格。
func TestOverflowingSpaceIsWrapPoint(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("aa bb cc", f)
	info := Flow(chars, Options{WrapLimit: 50})

	if len(info.Lines) != 2 {
		t.Fatalf("期望 2 行，得到 %d", len(info.Lines))
	}
	if !approx(info.Lines[0].Width, 50) {
		t.Fatalf("第一行应收满 aa bb（宽 50），得到 %g", info.Lines[0].Width)
	}
	if !chars[5].Disabled {
		t.Fatalf("溢出的空格应被吞掉")
	}
	if chars[2].Disabled {
		t.Fatalf("行内更早的空格不应被吞掉")
	}
	if info.Lines[1].Start != 6 || !approx(info.Lines[1].Width, 20) {
		t.Fatalf("第二行应为 cc：start=%d width=%g", info.Lines[1].Start, info.Lines[1].Width)
	}
}

func TestForcedBreakWithoutIdealPoint(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("aaaaaa", f)
	info := Flow(chars, Options{WrapLimit: 25})

	if len(info.Lines) != 3 {
		t.Fatalf("期望 3 行，得到 %d", len(info.Lines))
	}
	for i, ln := range info.Lines {
		if ln.End-ln.Start != 2 {
			t.Fatalf("第 %d 行应容纳 2 个字符，得到 %d", i, ln.End-ln.Start)
		}
	}
}

func TestSingleCharNeverSplits(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("ab", f)
	info := Flow(chars, Options{WrapLimit: 5})

	// 行宽小于单字符宽度时每行强制收一个字符，宽度允许超限。
	if len(info.Lines) != 2 {
		t.Fatalf("期望 2 行，得到 %d", len(info.Lines))
	}
	for i, ln := range info.Lines {
		if !approx(ln.Width, 10) {
			t.Fatalf("第 %d 行应为单字符宽度 10，得到 %g", i, ln.Width)
		}
	}
}

func TestExplicitBreakAbsorbsFollowingSpace(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("ab\n cd", f)
	info := Flow(chars, Options{})

	if len(info.Lines) != 2 {
		t.Fatalf("期望 2 行，得到 %d", len(info.Lines))
	}
	if !chars[2].Disabled || !chars[3].Disabled {
		t.Fatalf("换行符及其后的空格都应被禁用")
	}
	if info.Lines[1].Start != 4 {
		t.Fatalf("第二行应从空格之后开始，得到 %d", info.Lines[1].Start)
	}
	if !info.Lines[0].EndsParagraph {
		t.Fatalf("显式换行结束的行应标记段落结束")
	}
}

// 以显式换行收尾的文本补一个空末行，尾部空行计入总高。
func TestTrailingBreakEmitsEmptyLine(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("ab\n", f)
	info := Flow(chars, Options{})

	if len(info.Lines) != 2 {
		t.Fatalf("期望 2 行（含空末行），得到 %d", len(info.Lines))
	}
	last := info.Lines[1]
	if last.Start != 3 || last.End != 3 {
		t.Fatalf("空末行区间错误：[%d,%d)", last.Start, last.End)
	}
	if !approx(last.Height, 12) {
		t.Fatalf("空末行应沿用上一行行高，得到 %g", last.Height)
	}
	if !approx(info.Height, 24) {
		t.Fatalf("总高应计入空末行，得到 %g", info.Height)
	}
}

// 折行吞掉的行尾空格不产生空末行。
func TestAbsorbedTrailingSpaceNoBlankLine(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("aaaa ", f)
	info := Flow(chars, Options{WrapLimit: 40})

	if len(info.Lines) != 1 {
		t.Fatalf("被吞掉的行尾空格不应产生空行，得到 %d 行", len(info.Lines))
	}
	if !chars[4].Disabled {
		t.Fatalf("溢出的行尾空格应被吞掉")
	}
}

func TestEqualWidthLineThenBreakNoBlankLine(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("ab\ncd", f)
	info := Flow(chars, Options{WrapLimit: 20})

	if len(info.Lines) != 2 {
		t.Fatalf("恰好等宽的行后接显式换行不应产生空行，得到 %d 行", len(info.Lines))
	}
}

func TestCenterAndEndAlign(t *testing.T) {
	f := &stubFont{}

	chars := charsOf("ab", f)
	Flow(chars, Options{Align: AlignCenter, BoxWidth: 40})
	if !approx(chars[0].X, 10) {
		t.Fatalf("center 对齐首字符应在 10，得到 %g", chars[0].X)
	}

	chars = charsOf("ab", f)
	Flow(chars, Options{Align: AlignEnd, BoxWidth: 40})
	if !approx(chars[0].X, 20) {
		t.Fatalf("end 对齐首字符应在 20，得到 %g", chars[0].X)
	}
}

func TestJustifyFillsBoxExactly(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("aa bb cc dd", f)
	info := Flow(chars, Options{WrapLimit: 70, Align: AlignJustify, BoxWidth: 70})

	if len(info.Lines) != 2 {
		t.Fatalf("期望 2 行，得到 %d", len(info.Lines))
	}
	ln := info.Lines[0]
	if ln.Spaces != 1 {
		t.Fatalf("第一行应含 1 个未禁用空格，得到 %d", ln.Spaces)
	}
	// 空隙的一半加在空格前，一半加在空格后。
	last := chars[ln.End-2] // End-1 是被吞掉的折行空格
	if !approx(last.X+last.Width(), 70) {
		t.Fatalf("justify 行的右缘应与参考框对齐，得到 %g", last.X+last.Width())
	}
	space := chars[2]
	if !approx(space.X, 20+10) {
		t.Fatalf("空格前应加入一半富余宽度，得到 %g", space.X)
	}
}

func TestJustifyFinalLineNotStretched(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("aa bb cc dd", f)
	Flow(chars, Options{WrapLimit: 70, Align: AlignJustify, BoxWidth: 70})

	// 末行（段落结束）保持自然宽度。
	last := chars[len(chars)-1]
	if !approx(last.X+last.Width(), 50) {
		t.Fatalf("段落末行不应被拉伸，右缘得到 %g", last.X+last.Width())
	}
}

func TestJustifyStretchFinalLineOption(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("aa bb", f)
	Flow(chars, Options{Align: AlignJustify, BoxWidth: 80, StretchFinalLine: true})

	last := chars[len(chars)-1]
	if !approx(last.X+last.Width(), 80) {
		t.Fatalf("StretchFinalLine 时末行也应拉伸，右缘得到 %g", last.X+last.Width())
	}
}

func TestLetterspaceDistributesGaps(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("abc", f)
	Flow(chars, Options{Align: AlignLetterspace, BoxWidth: 70, StretchFinalLine: true})

	// 富余 40 平分到 2 个符号间隙。
	if !approx(chars[0].X, 0) {
		t.Fatalf("首符号不加间隙，得到 %g", chars[0].X)
	}
	if !approx(chars[1].X, 30) {
		t.Fatalf("第二个符号应在 30，得到 %g", chars[1].X)
	}
	if !approx(chars[2].X, 60) {
		t.Fatalf("第三个符号应在 60，得到 %g", chars[2].X)
	}
}

func TestInvalidAlignReported(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("ab", f)
	info := Flow(chars, Options{Align: "diagonal", BoxWidth: 40})

	if !info.InvalidAlign {
		t.Fatalf("未知对齐方式应被标记")
	}
	// 布局仍按 start 进行，保证诊断路径之外的坐标可用。
	if !approx(chars[0].X, 0) {
		t.Fatalf("未知对齐应按 start 布局，得到 %g", chars[0].X)
	}
}

func TestVerticalAlign(t *testing.T) {
	f := &stubFont{}

	chars := charsOf("a", f)
	Flow(chars, Options{VerticalAlign: VAlignMiddle, BoxHeight: 100})
	if !approx(chars[0].Y, 44) {
		t.Fatalf("middle 对齐应下移 (100-12)/2=44，得到 %g", chars[0].Y)
	}

	chars = charsOf("a", f)
	Flow(chars, Options{VerticalAlign: VAlignBottom, BoxHeight: 100})
	if !approx(chars[0].Y, 88) {
		t.Fatalf("bottom 对齐应下移 88，得到 %g", chars[0].Y)
	}
}

func TestLineYAdvancesByLineHeight(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("a\nb", f)
	info := Flow(chars, Options{})

	if !approx(chars[0].Y, 0) || !approx(chars[2].Y, 12) {
		t.Fatalf("第二行应下移一个行高，得到 %g / %g", chars[0].Y, chars[2].Y)
	}
	if !approx(info.Height, 24) {
		t.Fatalf("总高应为 24，得到 %g", info.Height)
	}
}

func TestKerningAccumulatesInWidth(t *testing.T) {
	f := &stubFont{kern: -2}
	chars := charsOf("abc", f)
	info := Flow(chars, Options{})

	// 两个字距各 -2。
	if !approx(info.Lines[0].Width, 30-4) {
		t.Fatalf("行宽应计入字距，得到 %g", info.Lines[0].Width)
	}
	if !approx(chars[1].X, 8) {
		t.Fatalf("第二个字符应前移字距，得到 %g", chars[1].X)
	}
}

func TestReplacedTextChangesWidth(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("ab", f)
	chars[0].Replaced = "xx"
	Flow(chars, Options{})

	if !approx(chars[1].X, 20) {
		t.Fatalf("替换串的宽度应参与布局，得到 %g", chars[1].X)
	}
}

func TestHiddenCharKeepsWidth(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("ab", f)
	chars[0].Hidden = true
	Flow(chars, Options{})

	if !approx(chars[1].X, 10) {
		t.Fatalf("隐藏字符保留排版宽度，得到 %g", chars[1].X)
	}
}

func TestFlowResetsDisabled(t *testing.T) {
	f := &stubFont{}
	chars := charsOf("hello world", f)
	Flow(chars, Options{WrapLimit: 60})
	if !chars[5].Disabled {
		t.Fatalf("前置条件：空格应被吞掉")
	}

	// 放宽限制后重排，之前被吞掉的空格应复活。
	Flow(chars, Options{WrapLimit: 200})
	if chars[5].Disabled {
		t.Fatalf("重排应重置 Disabled")
	}
}

func TestEmptyTextStillHasOneLine(t *testing.T) {
	info := Flow(nil, Options{})
	if len(info.Lines) != 1 {
		t.Fatalf("空文本应产生一个空行，得到 %d", len(info.Lines))
	}
}
