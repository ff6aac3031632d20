package history

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/energyflow/core/model"
)

// ChartHTML renders every column of t as a line series of one chart.
func ChartHTML(title string, t model.Table) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Zeit"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	xAxis := make([]string, len(t.Times))
	for i, ts := range t.Times {
		xAxis[i] = ts.Local().Format("2006-01-02 15:04")
	}
	line.SetXAxis(xAxis)
	for _, c := range t.Columns {
		data := make([]opts.LineData, len(c.Values))
		for i, v := range c.Values {
			data[i] = opts.LineData{Value: v}
		}
		name := c.Name
		if c.Unit != "" {
			name = fmt.Sprintf("%s (%s)", c.Name, c.Unit)
		}
		line.AddSeries(name, data)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}
