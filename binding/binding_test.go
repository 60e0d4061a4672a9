package binding

import "testing"

func TestInterpolateFields(t *testing.T) {
	data := map[string]any{
		"speaker": map[string]any{"name": "Ada"},
		"gold":    42,
	}
	got := Interpolate("${speaker.name}: ${gold} gold", data)
	if got != "Ada: 42 gold" {
		t.Fatalf("插值结果错误：%q", got)
	}
}

func TestInterpolateIndexes(t *testing.T) {
	data := map[string]any{
		"lines": []any{"first", "second"},
		"grid":  []any{[]any{"a", "b"}},
	}
	if got := Interpolate("${lines[1]}", data); got != "second" {
		t.Fatalf("下标插值错误：%q", got)
	}
	if got := Interpolate("${grid[0][1]}", data); got != "b" {
		t.Fatalf("多重下标插值错误：%q", got)
	}
}

func TestInterpolateMissingPathKeepsPlaceholder(t *testing.T) {
	data := map[string]any{"a": map[string]any{}}
	for _, src := range []string{"${a.missing}", "${lines[9]}", "${}"} {
		if got := Interpolate(src, data); got != src {
			t.Fatalf("路径缺失应保留占位符 %q，得到 %q", src, got)
		}
	}
}

func TestInterpolateNilData(t *testing.T) {
	src := "hello ${name}"
	if got := Interpolate(src, nil); got != src {
		t.Fatalf("无数据时文本应原样返回，得到 %q", got)
	}
}
