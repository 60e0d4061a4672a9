package effects

import (
	"math"
	"strconv"

	"github.com/ByLCY/marker/markup"
)

// EventCharAppeared 是 typewriter 在字符首次变为可见时触发的事件名。
const EventCharAppeared = "char-appeared"

// defaultCorruptChars 是 corrupt 效果的默认替换字形集合。
const defaultCorruptChars = "#$%&@=*?!"

// registerBuiltins 按固定声明顺序装配全部内置效果。
// 顺序即字符级处理时的全局应用顺序，改动会影响渲染结果。
func registerBuiltins(r *Registry) {
	r.Register("color", Effect{Char: r.colorChar})
	r.Register("censor", Effect{Char: censorChar})
	r.Register("shake", Effect{Char: shakeChar})
	r.Register("wiggle", Effect{Char: wiggleChar})
	r.Register("wave", Effect{Char: waveChar})
	r.Register("harmonica", Effect{Char: harmonicaChar})
	r.Register("corrupt", Effect{Char: corruptChar})
	r.Register("typewriter", Effect{Run: r.typewriterRun})
}

// colorChar 把 value 属性经调色板解析为颜色覆盖；未知名字由调色板
// 回落到默认颜色（可先询问外部解析钩子）。
func (r *Registry) colorChar(c *markup.Char, attrs markup.Attributes, _ float64, _ int) []*markup.Char {
	col := r.resolveColor(attrs["value"])
	c.Color = &col
	return nil
}

// censorChar 用 repl 属性（默认 "*"）替换渲染串。零宽填充字符不替换，
// 否则自闭合标签会凭空多出一个字形。
func censorChar(c *markup.Char, attrs markup.Attributes, _ float64, _ int) []*markup.Char {
	if c.Text == "" {
		return nil
	}
	repl := attrs["repl"]
	if repl == "" {
		repl = "*"
	}
	c.Replaced = repl
	return nil
}

// shakeChar 每帧以 floor(time*16*speed)+index 为种子取确定性抖动，
// 同一字符在同一时刻的抖动总是一致。x、y 依次取自同一个种子流。
func shakeChar(c *markup.Char, attrs markup.Attributes, now float64, index int) []*markup.Char {
	amount := numAttr(attrs, "amount", 1) * 4
	speed := numAttr(attrs, "speed", 1)
	n := newNoise(int64(math.Floor(now*16*speed)) + int64(index))
	c.OffsetX += (n.next()-0.5)*amount + 0.5
	c.OffsetY += (n.next()-0.5)*amount + 0.5
	return nil
}

// wiggleChar 在种子 seed-1 与 seed 的两个伪随机目标之间按半正弦缓动插值，
// 插值参数为 time*16*speed 的小数部分。
func wiggleChar(c *markup.Char, attrs markup.Attributes, now float64, index int) []*markup.Char {
	amount := numAttr(attrs, "amount", 1) * 5
	speed := numAttr(attrs, "speed", 1)
	base := now * 16 * speed
	seed := int64(math.Floor(base)) + int64(index)
	t := base - math.Floor(base)
	ease := (1 - math.Cos(t*math.Pi)) / 2

	prev := newNoise(seed - 1)
	cur := newNoise(seed)
	px := (prev.next()-0.5)*amount + 0.5
	py := (prev.next()-0.5)*amount + 0.5
	cx := (cur.next()-0.5)*amount + 0.5
	cy := (cur.next()-0.5)*amount + 0.5
	c.OffsetX += px + (cx-px)*ease
	c.OffsetY += py + (cy-py)*ease
	return nil
}

func waveChar(c *markup.Char, attrs markup.Attributes, now float64, index int) []*markup.Char {
	amount := numAttr(attrs, "amount", 1) * 5
	speed := numAttr(attrs, "speed", 1)
	c.OffsetY += math.Sin(now*speed*10-float64(index)/2) * amount
	return nil
}

// harmonicaChar 与 wave 相同，但作用在 x 轴。
func harmonicaChar(c *markup.Char, attrs markup.Attributes, now float64, index int) []*markup.Char {
	amount := numAttr(attrs, "amount", 1) * 5
	speed := numAttr(attrs, "speed", 1)
	c.OffsetX += math.Sin(now*speed*10-float64(index)/2) * amount
	return nil
}

// corruptChar 只作用于符号字符，以 100*index+floor(time*20*speed) 为种子
// 从 chars 集合中确定性地挑选替换字形。
func corruptChar(c *markup.Char, attrs markup.Attributes, now float64, index int) []*markup.Char {
	if !c.IsSymbol() {
		return nil
	}
	speed := numAttr(attrs, "speed", 1)
	set := attrs["chars"]
	if set == "" {
		set = defaultCorruptChars
	}
	runes := []rune(set)
	if len(runes) == 0 {
		return nil
	}
	seed := int64(100*index) + int64(math.Floor(now*20*speed))
	pick := int(newNoise(seed).next() * float64(len(runes)))
	if pick >= len(runes) {
		pick = len(runes) - 1
	}
	c.Replaced = string(runes[pick])
	return nil
}

// typewriterRun 从左到右累计每字符的揭示延迟：基础 1/(speed*10) 秒，
// 标点加倍，空白/换行/填充字符为零。appear 属性存在时产生 0..1 的
// 渐显透明度，否则按阈值取 0/1。未揭示的字符本帧隐藏（不改变排版宽度）。
// 当某字符的揭示阈值在 (prev, now] 内被首次跨越时触发 char-appeared 事件。
func (r *Registry) typewriterRun(v *View, name string, now, prev float64) {
	attrs := v.At(0).Effects[name]
	speed := numAttr(attrs, "speed", 1)
	if speed <= 0 {
		speed = 1
	}
	appear, hasAppear := lookupNum(attrs, "appear")

	elapsed := 0.0
	for i := 0; i < v.Len(); i++ {
		c := v.At(i)
		delay := 1 / (speed * 10)
		switch {
		case c.Text == "" || c.IsSpace() || c.IsLineBreak():
			delay = 0
		case c.IsPunctuation():
			delay *= 2
		}
		start := elapsed
		elapsed += delay

		var progress float64
		if delay > 0 {
			progress = (now - start) / delay
		} else if now >= elapsed {
			progress = 1
		}

		var alpha float64
		if hasAppear && appear > 0 {
			alpha = progress / appear
			if alpha < 0 {
				alpha = 0
			} else if alpha > 1 {
				alpha = 1
			}
		} else if progress >= 1 {
			alpha = 1
		}

		c.Alpha = alpha
		if alpha <= 0 {
			c.Hidden = true
		}
		if delay > 0 && prev < elapsed && now >= elapsed {
			r.Notify(EventCharAppeared, c)
		}
	}
}

// numAttr 解析数值属性，缺失或非法时回落到默认值。
func numAttr(attrs markup.Attributes, key string, def float64) float64 {
	v, ok := attrs[key]
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func lookupNum(attrs markup.Attributes, key string) (float64, bool) {
	v, ok := attrs[key]
	if !ok || v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
