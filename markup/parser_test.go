package markup_test

import (
	"testing"

	"github.com/ByLCY/marker/markup"
)

// stubFont 是仅用于测试的最小字体实现：每个字符等宽。
type stubFont struct{}

func (stubFont) Width(text string) float64 {
	return 10 * float64(len([]rune(text)))
}
func (stubFont) Height(includeLineGap bool) float64 {
	if includeLineGap {
		return 12
	}
	return 10
}
func (stubFont) Kerning(left, right string) float64 { return 0 }
func (stubFont) Draw(text string, x, y float64)     {}

func texts(chars []*markup.Char) string {
	var out string
	for _, c := range chars {
		out += c.Text
	}
	return out
}

func TestParsePlainText(t *testing.T) {
	chars := markup.Parse("Hi!", stubFont{})
	if len(chars) != 3 {
		t.Fatalf("期望 3 个字符，得到 %d", len(chars))
	}
	for i, c := range chars {
		if len(c.Order) != 0 {
			t.Fatalf("字符 %d 不应携带效果：%v", i, c.Order)
		}
		if c.Alpha != 1 {
			t.Fatalf("字符 %d 初始 Alpha 应为 1，得到 %g", i, c.Alpha)
		}
	}
}

func TestParseNestedTags(t *testing.T) {
	chars := markup.Parse(`<shake amount='2'><color value="red">ab</color></shake>c`, stubFont{})
	if got := texts(chars); got != "abc" {
		t.Fatalf("标签应被剥离，得到 %q", got)
	}

	for _, c := range chars[:2] {
		if len(c.Order) != 2 || c.Order[0] != "shake" || c.Order[1] != "color" {
			t.Fatalf("期望效果顺序 [shake color]（最外层在前），得到 %v", c.Order)
		}
		if c.Effects["shake"]["amount"] != "2" {
			t.Fatalf("shake 属性丢失：%v", c.Effects["shake"])
		}
		if c.Effects["color"]["value"] != "red" {
			t.Fatalf("color 属性丢失：%v", c.Effects["color"])
		}
	}
	last := chars[2]
	if len(last.Order) != 1 || last.Order[0] != "shake" {
		t.Fatalf("color 关闭后字符只应携带 shake，得到 %v", last.Order)
	}
}

func TestParseEntities(t *testing.T) {
	chars := markup.Parse("&lt;b&gt; &amp; &quot;&apos;", stubFont{})
	if got := texts(chars); got != `<b> & "'` {
		t.Fatalf("实体解码结果错误：%q", got)
	}
	for _, c := range chars {
		if len(c.Order) != 0 {
			t.Fatalf("解码出的 %q 不应被当作标签", c.Text)
		}
	}
}

func TestUnknownEntityStaysLiteral(t *testing.T) {
	chars := markup.Parse("&nope;", stubFont{})
	if got := texts(chars); got != "&nope;" {
		t.Fatalf("未知实体应按字面保留，得到 %q", got)
	}
}

func TestEntityInsideAttribute(t *testing.T) {
	chars := markup.Parse(`<censor repl='&amp;'>x</censor>`, stubFont{})
	if len(chars) != 1 {
		t.Fatalf("期望 1 个字符，得到 %d", len(chars))
	}
	if got := chars[0].Effects["censor"]["repl"]; got != "&" {
		t.Fatalf("属性值里的实体应被解码，得到 %q", got)
	}
}

func TestMalformedTagFallsBackToLiteral(t *testing.T) {
	for _, src := range []string{"1<2", "a < b", "x<", "a<=b>"} {
		chars := markup.Parse(src, stubFont{})
		if got := texts(chars); got != src {
			t.Fatalf("%q 应整体按字面输出，得到 %q", src, got)
		}
	}
}

func TestSelfClosingTagEmitsFiller(t *testing.T) {
	chars := markup.Parse("a<pause/>b", stubFont{})
	if len(chars) != 3 {
		t.Fatalf("期望 3 个字符（含零宽填充），得到 %d", len(chars))
	}
	filler := chars[1]
	if filler.Text != "" {
		t.Fatalf("填充字符的 Text 应为空，得到 %q", filler.Text)
	}
	if !filler.HasEffect("pause") {
		t.Fatalf("填充字符应携带 pause 效果：%v", filler.Order)
	}
	if chars[2].HasEffect("pause") {
		t.Fatalf("自闭合标签不应影响后续字符")
	}
}

func TestEmptyTagPairEmitsFiller(t *testing.T) {
	chars := markup.Parse("<b></b>x", stubFont{})
	if len(chars) != 2 {
		t.Fatalf("期望填充 + x 共 2 个字符，得到 %d", len(chars))
	}
	if chars[0].Text != "" || !chars[0].HasEffect("b") {
		t.Fatalf("空标签对应合成零宽填充字符：%+v", chars[0])
	}
}

func TestUnclosedTagFillerAtEOF(t *testing.T) {
	chars := markup.Parse("a<shake>", stubFont{})
	if len(chars) != 2 {
		t.Fatalf("期望 2 个字符，得到 %d", len(chars))
	}
	if chars[1].Text != "" || !chars[1].HasEffect("shake") {
		t.Fatalf("未闭合且未覆盖字符的标签应在文末合成填充：%+v", chars[1])
	}
}

func TestMismatchedCloseTagIgnored(t *testing.T) {
	chars := markup.Parse("<b>x</i>y</b>", stubFont{})
	if got := texts(chars); got != "xy" {
		t.Fatalf("不匹配的闭合标签应被消费并忽略，得到 %q", got)
	}
	for _, c := range chars {
		if !c.HasEffect("b") {
			t.Fatalf("栈不应被不匹配的闭合标签破坏：%v", c.Order)
		}
	}
}

func TestInnerTagAttributesWin(t *testing.T) {
	chars := markup.Parse(`<shake amount='1' speed='3'><shake amount='2'>a</shake></shake>`, stubFont{})
	if len(chars) != 1 {
		t.Fatalf("期望 1 个字符，得到 %d", len(chars))
	}
	c := chars[0]
	if len(c.Order) != 1 {
		t.Fatalf("同名嵌套标签应合并为一个效果：%v", c.Order)
	}
	if c.Effects["shake"]["amount"] != "2" {
		t.Fatalf("内层属性应覆盖外层，得到 %v", c.Effects["shake"])
	}
	if c.Effects["shake"]["speed"] != "3" {
		t.Fatalf("外层独有的属性应保留，得到 %v", c.Effects["shake"])
	}
}

func TestCarriageReturnSkipped(t *testing.T) {
	chars := markup.Parse("a\r\nb", stubFont{})
	if got := texts(chars); got != "a\nb" {
		t.Fatalf("\\r 应被跳过，得到 %q", got)
	}
}

func TestStyleExpansion(t *testing.T) {
	styles := map[string]markup.Style{
		"shout": {
			{Name: "shake", Attrs: markup.Attributes{"amount": "2"}},
			{Name: "color", Attrs: markup.Attributes{"value": "red"}},
		},
	}
	chars := markup.ParseWithStyles(`<shout speed='3'>a</shout>`, stubFont{}, styles)
	if len(chars) != 1 {
		t.Fatalf("期望 1 个字符，得到 %d", len(chars))
	}
	c := chars[0]
	if len(c.Order) != 2 || c.Order[0] != "shake" || c.Order[1] != "color" {
		t.Fatalf("样式应按声明顺序展开，得到 %v", c.Order)
	}
	// 标签上的内联属性合并进样式的每个效果。
	if c.Effects["shake"]["amount"] != "2" || c.Effects["shake"]["speed"] != "3" {
		t.Fatalf("shake 属性合并错误：%v", c.Effects["shake"])
	}
	if c.Effects["color"]["value"] != "red" || c.Effects["color"]["speed"] != "3" {
		t.Fatalf("color 属性合并错误：%v", c.Effects["color"])
	}
}

func TestBareAttributeIsEmptyString(t *testing.T) {
	chars := markup.Parse(`<typewriter appear>a</typewriter>`, stubFont{})
	attrs := chars[0].Effects["typewriter"]
	if v, ok := attrs["appear"]; !ok || v != "" {
		t.Fatalf("无值属性应记录为空字符串：%v", attrs)
	}
}
