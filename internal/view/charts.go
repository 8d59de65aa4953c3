package view

import (
	"fmt"
	"strings"
)

// PerformanceChart is how the performance series is drawn.
type PerformanceChart string

const (
	PerformanceBar  PerformanceChart = "bar"
	PerformanceArea PerformanceChart = "area"
	PerformanceLine PerformanceChart = "line"
)

// ValueChart is how the value series is drawn.
type ValueChart string

const (
	ValuePie ValueChart = "pie"
	ValueBar ValueChart = "bar"
)

// ChartPrefs is the chart selection of one assistant message.
type ChartPrefs struct {
	Performance PerformanceChart
	Value       ValueChart
}

func DefaultChartPrefs() ChartPrefs {
	return ChartPrefs{Performance: PerformanceBar, Value: ValuePie}
}

func ParsePerformanceChart(s string) (PerformanceChart, error) {
	switch c := PerformanceChart(strings.ToLower(strings.TrimSpace(s))); c {
	case PerformanceBar, PerformanceArea, PerformanceLine:
		return c, nil
	}
	return "", fmt.Errorf("unknown performance chart %q (bar, area, line)", s)
}

func ParseValueChart(s string) (ValueChart, error) {
	switch c := ValueChart(strings.ToLower(strings.TrimSpace(s))); c {
	case ValuePie, ValueBar:
		return c, nil
	}
	return "", fmt.Errorf("unknown value chart %q (pie, bar)", s)
}
