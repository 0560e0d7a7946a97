package chart

import (
	"fmt"
	"io"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	paddingTop    = 50
	paddingLeft   = 80
	paddingRight  = 20
	paddingBottom = 60
	axisFontSize  = 9.0
	labelFontSize = 11.0
	barFill       = 0.6 // Доля ширины слота, занимаемая столбцом
	yHeadroom     = 1.1
)

// RenderPNG рисует диаграмму в формате PNG.
func RenderPNG(w io.Writer, spec Spec, bars []Bar) error {
	if len(bars) == 0 {
		return ErrNoData
	}

	slot := (spec.Width - paddingLeft - paddingRight) / len(bars)
	barWidth := max(1, int(float64(slot)*barFill))
	barSpacing := max(1, slot-barWidth)

	values := make([]gochart.Value, len(bars))
	for i, b := range bars {
		values[i] = gochart.Value{Label: b.Label, Value: b.Value}
	}

	top := maxValue(bars) * yHeadroom
	if top == 0 {
		top = 1
	}

	graph := gochart.BarChart{
		Title:  spec.Title,
		Width:  spec.Width,
		Height: spec.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: paddingTop, Left: paddingLeft, Right: paddingRight, Bottom: paddingBottom},
		},
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis:      gochart.Style{FontSize: axisFontSize},
		YAxis: gochart.YAxis{
			Style:          gochart.Style{FontSize: axisFontSize},
			Range:          &gochart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: bytesFormatter,
		},
		Bars:     values,
		Elements: []gochart.Renderable{axisLabels(spec)},
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("ошибка отрисовки диаграммы %q: %w", spec.Title, err)
	}
	return nil
}

// axisLabels подписывает оси: BarChart сам рисует только деления.
func axisLabels(spec Spec) gochart.Renderable {
	return func(r gochart.Renderer, _ gochart.Box, defaults gochart.Style) {
		r.SetFont(defaults.GetFont())
		r.SetFontColor(drawing.ColorBlack)
		r.SetFontSize(labelFontSize)

		xBox := r.MeasureText(spec.XLabel)
		r.Text(spec.XLabel, (spec.Width-xBox.Width())/2, spec.Height-paddingBottom/3)

		yBox := r.MeasureText(spec.YLabel)
		r.SetTextRotation(gochart.DegreesToRadians(270))
		r.Text(spec.YLabel, paddingLeft/3, (spec.Height+yBox.Width())/2)
		r.ClearTextRotation()
	}
}

func bytesFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return fmt.Sprint(v)
}
