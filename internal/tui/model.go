// Package tui renders the live proxy status monitor.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/relayctl/internal/probe"
	"github.com/creamcroissant/relayctl/internal/status"
)

const refreshInterval = 3 * time.Second

type dataMsg status.Data

type tickMsg time.Time

// Model is the watch-mode bubbletea model. It only reads state; quitting
// never touches configuration files.
type Model struct {
	collector *status.Collector
	data      *status.Data
	spinner   spinner.Model
	loading   bool
	width     int
}

// NewModel builds the watch model around a status collector.
func NewModel(collector *status.Collector) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{collector: collector, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.collect())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.collect()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case dataMsg:
		data := status.Data(msg)
		m.data = &data
		m.loading = false
		return m, tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
	case tickMsg:
		return m, m.collect()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) collect() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshInterval*2)
		defer cancel()
		return dataMsg(m.collector.Collect(ctx))
	}
}

func (m Model) View() string {
	if m.data == nil {
		return styleTitle.Render("Relay Proxy Status") + "\n\n  " +
			m.spinner.View() + " collecting...\n"
	}

	refreshing := ""
	if m.loading {
		refreshing = " " + m.spinner.View()
	}

	return styleTitle.Render("Relay Proxy Status") + refreshing + "\n" +
		styleFrame.Render(renderData(*m.data)) + "\n" +
		styleHelp.Render("r refresh · q quit · updates every 3s") + "\n"
}

// RenderOnce renders a single snapshot in the same styled frame without the
// interactive loop, for the one-shot status command.
func RenderOnce(d status.Data) string {
	return styleTitle.Render("Relay Proxy Status") + "\n" +
		styleFrame.Render(renderData(d)) + "\n"
}

func renderData(d status.Data) string {
	var lines []string
	if d.ServiceActive {
		lines = append(lines, styleLabel.Render("Service   ")+styleOnline.Render("running"))
	} else {
		lines = append(lines, styleLabel.Render("Service   ")+styleOffline.Render("stopped"))
	}

	if d.Node != nil {
		lines = append(lines, styleLabel.Render("Node      ")+fmt.Sprintf("%s (%s)", d.Node.Name, d.Node.Region))
		lines = append(lines, styleLabel.Render("Server    ")+fmt.Sprintf("%s [%s]", d.Target, d.Protocol))
		if d.Latency != nil {
			if d.Latency.Status == probe.StatusOnline {
				ms := d.Latency.LatencyMS
				lines = append(lines, styleLabel.Render("Latency   ")+latencyStyle(ms).Render(fmt.Sprintf("%.1fms", ms)))
			} else {
				lines = append(lines, styleLabel.Render("Latency   ")+styleOffline.Render("unreachable"))
			}
		}
	} else {
		lines = append(lines, styleLabel.Render("Node      ")+styleOffline.Render("not configured"))
	}

	if d.SubscriptionCount > 0 {
		lines = append(lines, styleLabel.Render("Feed      ")+fmt.Sprintf("%d nodes, updated %s",
			d.SubscriptionCount, d.SubscriptionUpdated.Format("2006-01-02 15:04:05")))
	} else {
		lines = append(lines, styleLabel.Render("Feed      ")+"builtin nodes")
	}

	if d.HostUptime > 0 {
		lines = append(lines, styleLabel.Render("Uptime    ")+formatUptime(d.HostUptime))
	}

	body := ""
	for _, l := range lines {
		body += l + "\n"
	}
	return body
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
