package effects

import "github.com/ByLCY/marker/markup"

// Process 每帧调用一次（在布局与绘制之前）。对每个字符：
//  1. 重置瞬态字段（渲染串覆盖、颜色覆盖、偏移）；
//  2. 字符级处理：按 Order 从前到后（最外层标签优先）调用字符级函数，
//     替换列表只在共享该效果的 run 的首字符上生效，且用显式工作队列
//     而非递归重新处理替换字符（替换字符不再二次替换）；
//  3. run 级处理：按 Order 从后到前（最内层标签优先），对每个栈深度上
//     效果名连续相同的区间，在区间结束处调用 run 级函数。
//
// 返回用于布局与绘制的显示序列。输入序列不被增删，替换只体现在返回值里，
// 因此相同 now 重复调用产生完全一致的结果。
func (r *Registry) Process(chars []*markup.Char, now, prev float64) []*markup.Char {
	out := make([]*markup.Char, 0, len(chars))
	for i, c := range chars {
		c.ResetTransient()
		out = r.charScope(out, chars, c, i, now)
	}
	r.runScope(out, now, prev)
	return out
}

type workItem struct {
	c         *markup.Char
	allowRepl bool
}

// charScope 对源序列第 i 个字符执行字符级处理，并把结果（字符本身或其
// 替换展开）追加到显示序列。
func (r *Registry) charScope(out []*markup.Char, chars []*markup.Char, c *markup.Char, i int, now float64) []*markup.Char {
	queue := []workItem{{c: c, allowRepl: true}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		var repl []*markup.Char
		for _, name := range it.c.Order {
			if !r.inOrder(name) {
				continue
			}
			eff, ok := r.effects[name]
			if !ok || eff.Char == nil {
				continue
			}
			res := eff.Char(it.c, it.c.Effects[name], now, i+1)
			if res == nil {
				continue
			}
			// 替换只在 run 首字符生效：前一个字符已携带同名效果时丢弃。
			if !it.allowRepl || it.c.Generated {
				continue
			}
			if i > 0 && chars[i-1].HasEffect(name) {
				continue
			}
			repl = res
			break
		}

		if repl == nil {
			out = append(out, it.c)
			continue
		}
		// 替换字符插回当前位置，重新过一遍字符级处理，但不允许再次替换。
		items := make([]workItem, 0, len(repl)+len(queue))
		for _, rc := range repl {
			rc.ResetTransient()
			rc.Generated = true
			items = append(items, workItem{c: rc, allowRepl: false})
		}
		queue = append(items, queue...)
	}
	return out
}

// runScope 在显示序列上查找每个栈深度的连续 run 并触发 run 级函数。
func (r *Registry) runScope(out []*markup.Char, now, prev float64) {
	if len(out) == 0 {
		return
	}
	runStart := map[int]int{}
	for i, c := range out {
		for d := range c.Order {
			if i == 0 || nameAt(out[i-1], d) != c.Order[d] {
				runStart[d] = i
			}
		}
		for d := len(c.Order) - 1; d >= 0; d-- {
			name := c.Order[d]
			if i < len(out)-1 && nameAt(out[i+1], d) == name {
				continue // run 在后面继续
			}
			if !r.inOrder(name) {
				continue
			}
			eff, ok := r.effects[name]
			if !ok || eff.Run == nil {
				continue
			}
			eff.Run(NewView(out, runStart[d], i), name, now, prev)
		}
	}
}

func nameAt(c *markup.Char, d int) string {
	if d < len(c.Order) {
		return c.Order[d]
	}
	return ""
}
