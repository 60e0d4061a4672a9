package theme

import (
	"image/color"

	"github.com/rs/zerolog/log"
)

// Resolver 是外部颜色解析钩子：返回 ok=false 时继续查内置调色板。
type Resolver func(name string) (color.RGBA, bool)

// Palette 保存命名颜色。进程启动时装配完毕，处理期间视为只读。
type Palette struct {
	colors   map[string]color.RGBA
	fallback color.RGBA
	resolver Resolver
	warned   map[string]bool
}

// defaultColors 是内置命名颜色表。
var defaultColors = map[string]color.RGBA{
	"white":   {R: 255, G: 255, B: 255, A: 255},
	"black":   {R: 0, G: 0, B: 0, A: 255},
	"red":     {R: 230, G: 40, B: 40, A: 255},
	"green":   {R: 40, G: 200, B: 70, A: 255},
	"blue":    {R: 50, G: 120, B: 230, A: 255},
	"yellow":  {R: 240, G: 210, B: 50, A: 255},
	"cyan":    {R: 60, G: 200, B: 220, A: 255},
	"magenta": {R: 220, G: 70, B: 200, A: 255},
	"orange":  {R: 245, G: 150, B: 40, A: 255},
	"purple":  {R: 150, G: 70, B: 210, A: 255},
	"gray":    {R: 128, G: 128, B: 128, A: 255},
}

// DefaultPalette 返回带内置颜色的新调色板，默认回落色为白色。
func DefaultPalette() *Palette {
	p := &Palette{
		colors:   make(map[string]color.RGBA, len(defaultColors)),
		fallback: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		warned:   map[string]bool{},
	}
	for name, c := range defaultColors {
		p.colors[name] = c
	}
	return p
}

// Set 注册或覆盖一个命名颜色。
func (p *Palette) Set(name string, c color.RGBA) {
	p.colors[name] = c
}

// SetFallback 设置未知颜色名的回落色。
func (p *Palette) SetFallback(c color.RGBA) {
	p.fallback = c
}

// Fallback 返回未知颜色名的回落色。
func (p *Palette) Fallback() color.RGBA {
	return p.fallback
}

// SetResolver 设置外部解析钩子，优先于内置颜色表。
func (p *Palette) SetResolver(r Resolver) {
	p.resolver = r
}

// Resolve 解析颜色名：先询问外部钩子，再查内置表，未知名字回落到
// 默认颜色。未知名字只告警一次，避免逐帧刷日志。
func (p *Palette) Resolve(name string) color.RGBA {
	if p.resolver != nil {
		if c, ok := p.resolver(name); ok {
			return c
		}
	}
	if c, ok := p.colors[name]; ok {
		return c
	}
	if name != "" && !p.warned[name] {
		p.warned[name] = true
		log.Warn().Str("component", "theme").Str("color", name).Msg("unknown color name, using fallback")
	}
	return p.fallback
}
