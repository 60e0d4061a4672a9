package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/marker/effects"
	"github.com/ByLCY/marker/font/canvasfont"
	"github.com/ByLCY/marker/marked"
	"github.com/ByLCY/marker/theme"
)

func main() {
	input := flag.String("in", "examples/demo.txt", "标记文本文件路径")
	fontPath := flag.String("font", "", "TTF/OTF 字体文件路径")
	themePath := flag.String("theme", "", "主题文件路径（可选）")
	output := flag.String("out", "output/demo.pdf", "PDF 输出路径")
	debug := flag.String("debug", "", "逐帧字符调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到文本的 JSON 数据")
	frames := flag.Int("frames", 8, "渲染的动画帧数（每帧一页）")
	dt := flag.Float64("dt", 0.125, "帧间隔（秒）")
	fontSize := flag.Float64("size", 8, "字号（mm）")
	wrap := flag.Float64("wrap", 0, "折行宽度（mm，0 表示不折行）")
	align := flag.String("align", "start", "水平对齐：start/center/end/justify/letterspace")
	valign := flag.String("valign", "top", "垂直对齐：top/middle/bottom")
	pageW := flag.Float64("page-width", 210, "页面宽度（mm）")
	pageH := flag.Float64("page-height", 80, "页面高度（mm）")
	verbosity := flag.Int("v", 0, "日志详细程度（0-2）")
	flag.Parse()

	setupLogger(*verbosity)

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatal().Err(err).Msg("解析 data JSON 失败")
		}
	}

	if err := run(*input, *fontPath, *themePath, *output, *debug, inputData, renderConfig{
		Frames:   *frames,
		Dt:       *dt,
		FontSize: *fontSize,
		Wrap:     *wrap,
		Align:    *align,
		VAlign:   *valign,
		PageW:    *pageW,
		PageH:    *pageH,
	}); err != nil {
		log.Fatal().Err(err).Msg("生成 PDF 失败")
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

// setupLogger 配置全局日志：按详细程度设置级别，输出到控制台。
func setupLogger(verbosity int) {
	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	})
}

type renderConfig struct {
	Frames   int
	Dt       float64
	FontSize float64
	Wrap     float64
	Align    string
	VAlign   string
	PageW    float64
	PageH    float64
}

// run 串联解析、效果处理、布局与逐帧渲染。
func run(inputPath, fontPath, themePath, outputPath, debugPath string, data any, cfg renderConfig) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("无法读取文本文件 %s: %w", inputPath, err)
	}
	if fontPath == "" {
		return fmt.Errorf("缺少字体文件（-font）")
	}

	face, err := canvasfont.New(canvasfont.Options{
		Name: "Body",
		Font: canvasfont.Resource{Path: fontPath},
		Size: cfg.FontSize,
	})
	if err != nil {
		return fmt.Errorf("加载字体失败: %w", err)
	}

	opts := marked.Options{
		Font:          face,
		Data:          data,
		WrapLimit:     cfg.Wrap,
		Align:         cfg.Align,
		VerticalAlign: cfg.VAlign,
		BoxWidth:      cfg.Wrap,
		BoxHeight:     cfg.PageH,
	}

	if themePath != "" {
		file, err := os.Open(themePath)
		if err != nil {
			return fmt.Errorf("无法打开主题文件 %s: %w", themePath, err)
		}
		th, parseErr := theme.Parse(file)
		file.Close()
		if parseErr != nil {
			return fmt.Errorf("解析主题失败: %w", parseErr)
		}
		log.Info().Str("theme", th.Name).Int("styles", len(th.Styles)).Msg("主题已加载")
		opts.Styles = th.Styles
		palette := theme.DefaultPalette()
		th.Apply(palette)
		reg := effects.Default()
		reg.SetPalette(palette)
		opts.Registry = reg
	}

	doc := marked.NewWithOptions(string(raw), opts)

	if cfg.Frames <= 0 {
		cfg.Frames = 1
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, cfg.PageW, cfg.PageH, nil)
	dbg := debugDump{Dt: cfg.Dt}
	for i := 0; i < cfg.Frames; i++ {
		if i > 0 {
			writer.NewPage(cfg.PageW, cfg.PageH)
			doc.Update(cfg.Dt)
		}
		c := canvas.New(cfg.PageW, cfg.PageH)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标以左上角为原点
		face.SetContext(ctx)
		doc.Draw(0, 0)
		c.RenderTo(writer)
		if debugPath != "" {
			dbg.Frames = append(dbg.Frames, snapshotFrame(doc))
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}

	if debugPath != "" {
		if err := writeDebug(dbg, debugPath); err != nil {
			return err
		}
	}
	return nil
}

// debugDump 是逐帧字符状态的调试快照。
type debugDump struct {
	Dt     float64      `json:"dt"`
	Frames []debugFrame `json:"frames"`
}

type debugFrame struct {
	Time  float64     `json:"time"`
	Chars []debugChar `json:"chars"`
}

type debugChar struct {
	Text     string  `json:"text"`
	Renders  string  `json:"renders"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	OffsetX  float64 `json:"offsetX,omitempty"`
	OffsetY  float64 `json:"offsetY,omitempty"`
	Alpha    float64 `json:"alpha"`
	Disabled bool    `json:"disabled,omitempty"`
}

func snapshotFrame(doc *marked.Text) debugFrame {
	frame := debugFrame{Time: doc.Time()}
	for _, c := range doc.Chars() {
		frame.Chars = append(frame.Chars, debugChar{
			Text:     c.Text,
			Renders:  c.Renders(),
			X:        c.X,
			Y:        c.Y,
			OffsetX:  c.OffsetX,
			OffsetY:  c.OffsetY,
			Alpha:    c.Alpha,
			Disabled: c.Disabled,
		})
	}
	return frame
}

func writeDebug(dump debugDump, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化调试 JSON 失败: %w", err)
	}
	if err := os.WriteFile(debugPath, data, 0o644); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
