package effects

import (
	"fmt"

	"github.com/ByLCY/marker/markup"
)

// View 是字符序列上一段连续子区间的轻量窗口，供 run 级效果使用。
// 它借用底层序列，绝不复制；越界访问属于集成错误，立即 panic。
type View struct {
	first int
	last  int
	chars []*markup.Char
}

// NewView 构造 [first, last] 闭区间上的窗口。
func NewView(chars []*markup.Char, first, last int) *View {
	if len(chars) == 0 {
		panic("effects: view over empty character sequence")
	}
	if first < 0 || last >= len(chars) || first > last {
		panic(fmt.Sprintf("effects: view bounds [%d,%d] out of range (len %d)", first, last, len(chars)))
	}
	return &View{first: first, last: last, chars: chars}
}

// Len 返回窗口内的字符数。
func (v *View) Len() int {
	return v.last - v.first + 1
}

// At 返回窗口内相对下标 i 处的字符。
func (v *View) At(i int) *markup.Char {
	if i < 0 || i >= v.Len() {
		panic(fmt.Sprintf("effects: view index %d out of range (len %d)", i, v.Len()))
	}
	return v.chars[v.first+i]
}

// First 返回窗口首字符在底层序列中的绝对下标。
func (v *View) First() int { return v.first }

// Last 返回窗口末字符在底层序列中的绝对下标。
func (v *View) Last() int { return v.last }
