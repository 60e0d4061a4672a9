package effects

import (
	"image/color"

	"github.com/ByLCY/marker/markup"
	"github.com/ByLCY/marker/theme"
)

// CharFunc 是字符级效果函数：就地修改字符，并可返回替换字符列表
// （替换类效果用它把一个逻辑单元展开为多个字符）。index 为 1 起始的序号。
type CharFunc func(c *markup.Char, attrs markup.Attributes, now float64, index int) []*markup.Char

// RunFunc 是 run 级效果函数：作用于共享同一效果的连续字符区间。
// prev 为上一帧时间，供需要检测阈值跨越的效果（typewriter）使用。
type RunFunc func(view *View, name string, now, prev float64)

// Effect 描述一个注册过的效果行为，两个函数均可为空。
type Effect struct {
	Char CharFunc
	Run  RunFunc
}

// EventFunc 是事件回调，payload 为触发事件的字符。
type EventFunc func(c *markup.Char)

// Registry 是进程级效果配置：名称到行为的映射、全局声明顺序、
// 调色板与事件回调表。应在构建任何 marked.Text 之前装配完毕，
// 处理过程中视为只读；测试应构造全新实例而非复用单例。
type Registry struct {
	effects   map[string]Effect
	order     []string
	palette   *theme.Palette
	callbacks map[string][]EventFunc
}

// NewRegistry 返回一个空注册表（使用默认调色板）。
func NewRegistry() *Registry {
	return &Registry{
		effects:   map[string]Effect{},
		palette:   theme.DefaultPalette(),
		callbacks: map[string][]EventFunc{},
	}
}

// Default 返回装配好全部内置效果的新注册表。
func Default() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register 注册效果并追加到全局声明顺序末尾。
// 不在顺序表中的效果即使注册了也不会被应用。
func (r *Registry) Register(name string, e Effect) {
	if _, ok := r.effects[name]; !ok {
		r.order = append(r.order, name)
	}
	r.effects[name] = e
}

// Order 返回全局声明顺序（只读使用）。
func (r *Registry) Order() []string { return r.order }

// Lookup 返回效果行为；未注册时 ok 为 false（无行为的效果是 no-op）。
func (r *Registry) Lookup(name string) (Effect, bool) {
	e, ok := r.effects[name]
	return e, ok
}

// inOrder 报告 name 是否出现在全局声明顺序中。
func (r *Registry) inOrder(name string) bool {
	for _, n := range r.order {
		if n == name {
			return true
		}
	}
	return false
}

// SetPalette 替换调色板（启动期配置）。
func (r *Registry) SetPalette(p *theme.Palette) {
	if p != nil {
		r.palette = p
	}
}

// Palette 返回当前调色板。
func (r *Registry) Palette() *theme.Palette { return r.palette }

// Subscribe 追加名为 event 的事件回调，外部音效/UI 逻辑可借此联动。
func (r *Registry) Subscribe(event string, fn EventFunc) {
	if fn == nil {
		return
	}
	r.callbacks[event] = append(r.callbacks[event], fn)
}

// Notify 触发名为 event 的全部回调。
func (r *Registry) Notify(event string, c *markup.Char) {
	for _, fn := range r.callbacks[event] {
		fn(c)
	}
}

// resolveColor 经调色板解析颜色名，未知名字回落到默认颜色。
func (r *Registry) resolveColor(name string) color.RGBA {
	return r.palette.Resolve(name)
}
