package handlers

import (
	"net/http"

	"github.com/ericjkge/eeg-tutor/internal/feed"
	"github.com/ericjkge/eeg-tutor/internal/signal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type FeedHandler struct {
	log     *zap.Logger
	monitor *feed.Monitor
}

func NewFeedHandler(log *zap.Logger, monitor *feed.Monitor) *FeedHandler {
	return &FeedHandler{log: log, monitor: monitor}
}

// Status reports the classified connection status for the live view.
func (h *FeedHandler) Status(c *gin.Context) {
	view := h.monitor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"active": view.Active,
		"status": view.Status,
		"report": view.Report,
	})
}

// Chart serves go-echarts options for the current sample window. An empty
// window yields has_data=false rather than an error.
func (h *FeedHandler) Chart(c *gin.Context) {
	view := h.monitor.Snapshot()
	if !view.HasData {
		c.JSON(http.StatusOK, gin.H{"has_data": false})
		return
	}

	line := generateLiveChart(view.Series)
	c.JSON(http.StatusOK, gin.H{
		"has_data": true,
		"options":  line.JSON(),
	})
}

// StartMonitoring enters active monitoring mode.
func (h *FeedHandler) StartMonitoring(c *gin.Context) {
	h.monitor.Start()
	c.JSON(http.StatusOK, gin.H{"active": true})
}

// StopMonitoring leaves active monitoring mode.
func (h *FeedHandler) StopMonitoring(c *gin.Context) {
	h.monitor.Stop()
	c.JSON(http.StatusOK, gin.H{"active": false})
}

// ResetAnchor re-baselines the chart's relative time axis.
func (h *FeedHandler) ResetAnchor(c *gin.Context) {
	h.monitor.ResetAnchor()
	c.Status(http.StatusOK)
}

func generateLiveChart(series []signal.ChannelSeries) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Live EEG",
			Subtitle: "amplitude by channel",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value",
			Name: "seconds",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	for _, s := range series {
		items := make([]opts.LineData, 0, len(s.Points))
		for _, p := range s.Points {
			items = append(items, opts.LineData{Value: []interface{}{p[0], p[1]}})
		}
		line.AddSeries(s.Name, items).SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 1}))
	}
	return line
}
