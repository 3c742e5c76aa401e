// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/aurastat/pkg/aura"
	"github.com/Thermoquad/aurastat/pkg/device"
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for information
}

// deviceItem adapts a device to list.Item
type deviceItem struct {
	d *device.Device
}

func (i deviceItem) Title() string       { return fmt.Sprintf("0x%08X %s", i.d.UID(), i.d.Type()) }
func (i deviceItem) Description() string { return i.d.Kind().String() }
func (i deviceItem) FilterValue() string { return fmt.Sprintf("%X", i.d.UID()) }

// monitorModel is the Bubble Tea model for the monitor TUI
type monitorModel struct {
	connInfo   string
	registry   *device.Registry
	deviceList list.Model

	stats         aura.Statistics
	polls         int
	discovering   bool
	workerErr     error
	events        []eventLogEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
}

type monitorTickMsg time.Time

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialMonitorModel(connInfo string, registry *device.Registry) monitorModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	deviceList := list.New([]list.Item{}, delegate, 30, 10)
	deviceList.Title = "Devices"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.SetFilteringEnabled(false)

	return monitorModel{
		connInfo:      connInfo,
		registry:      registry,
		deviceList:    deviceList,
		stats:         *aura.NewStatistics(),
		discovering:   true,
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.deviceList, cmd = m.deviceList.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case monitorTickMsg:
		// Re-render so elapsed times stay current
		return m, monitorTickCmd()

	case discoveredMsg:
		for _, d := range msg.created {
			m.addLogEntry(fmt.Sprintf("Round %d: found %s 0x%08X", msg.round+1, d.Label(), d.UID()), false)
		}
		m.updateDeviceList()

	case pollMsg:
		if m.discovering {
			m.discovering = false
			m.addLogEntry(fmt.Sprintf("Discovery finished: %d device(s)", m.registry.Len()), false)
		}
		m.polls++
		m.stats = msg.stats
		for _, uid := range msg.unknown {
			m.addLogEntry(fmt.Sprintf("Response from unknown uid 0x%08X", uid), true)
		}
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Status request: %v", msg.err), true)
		}
		if m.polls == 1 && m.registry.Len() == 0 {
			m.addLogEntry("No devices answered; check connection and device power", true)
		}

	case workerDoneMsg:
		m.workerErr = msg.err
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.addLogEntry(fmt.Sprintf("Bus worker stopped: %v", msg.err), true)
		}
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.events = append(m.events, entry)

	// Keep only last N entries
	if len(m.events) > m.maxLogEntries {
		m.events = m.events[len(m.events)-m.maxLogEntries:]
	}
}

func (m *monitorModel) updateDeviceList() {
	devices := m.registry.Devices()
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{d: d}
	}
	m.deviceList.SetItems(items)
}

func (m *monitorModel) updateListSize() {
	// Adjust list size based on terminal size
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.deviceList.SetSize(28, listHeight)
}

func (m monitorModel) selectedDevice() *device.Device {
	item, ok := m.deviceList.SelectedItem().(deviceItem)
	if !ok {
		return nil
	}
	return item.d
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("AURASTAT - BUS MONITOR"))
	s.WriteString("\n")
	phase := fmt.Sprintf("Polls: %d", m.polls)
	if m.discovering {
		phase = "Discovering..."
	}
	if m.workerErr != nil {
		phase = "Stopped"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %s | Press 'q' to quit", m.connInfo, phase)))
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.renderStats()))
	s.WriteString("\n\n")

	detail := boxStyle.Width(max(m.width-36, 30)).Render(m.renderDevice(m.selectedDevice()))
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.deviceList.View(), "  ", detail))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(m.renderEvents()))

	return s.String()
}

func (m monitorModel) renderStats() string {
	st := m.stats
	st.CalculateRates()

	var validPercent float64
	if st.TotalFrames > 0 {
		validPercent = float64(st.ValidFrames) * 100.0 / float64(st.TotalFrames)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("Requests:"), valueStyle.Render(fmt.Sprintf("%d", st.Requests)),
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%% valid)", st.TotalFrames, validPercent)),
		labelStyle.Render("Silent:"), valueStyle.Render(fmt.Sprintf("%d", st.EmptyBursts)),
	)

	errs := fmt.Sprintf("%d", st.Errors())
	if st.Errors() > 0 {
		errs = errorStyle.Render(fmt.Sprintf("%d (checksum %d, foreign %d, truncated %d, partial %d)",
			st.Errors(), st.ChecksumErrors, st.ForeignFrames, st.Truncated, st.PartialHeaders))
	} else {
		errs = valueStyle.Render(errs)
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Dropped:"), errs)
	fmt.Fprintf(&b, "%s %s   %s %s",
		labelStyle.Render("Frame Rate:"), valueStyle.Render(fmt.Sprintf("%.1f frames/s", st.FrameRate)),
		labelStyle.Render("Error Rate:"), valueStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate)),
	)
	return b.String()
}

func (m monitorModel) renderDevice(d *device.Device) string {
	if d == nil {
		return headerStyle.Render("(no device selected)")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Device:"), valueStyle.Render(d.Label()))
	fmt.Fprintf(&b, "%s 0x%08X\n", labelStyle.Render("UID:"), d.UID())

	updated := d.Updated()
	if updated.IsZero() {
		b.WriteString(headerStyle.Render("(no status yet)"))
		return b.String()
	}
	fmt.Fprintf(&b, "%s %s ago\n", labelStyle.Render("Updated:"), time.Since(updated).Round(time.Second))

	switch st := d.Status().(type) {
	case device.TemperatureStatus:
		fmt.Fprintf(&b, "%s %s", labelStyle.Render("Temperature:"), valueStyle.Render(fmt.Sprintf("%.1f°C", st.Temperature)))
	case device.TemperatureHumidityStatus:
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Temperature:"), valueStyle.Render(fmt.Sprintf("%.1f°C", st.Temperature)))
		fmt.Fprintf(&b, "%s %s", labelStyle.Render("Humidity:"), valueStyle.Render(fmt.Sprintf("%.0f%%", st.Humidity)))
	case device.TemperaturePressureStatus:
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Temperature:"), valueStyle.Render(fmt.Sprintf("%.1f°C", st.Temperature)))
		fmt.Fprintf(&b, "%s %s", labelStyle.Render("Pressure:"), valueStyle.Render(fmt.Sprintf("%.0f Pa", st.Pressure)))
	case device.HandleStatus:
		lock := "closed"
		if st.Open {
			lock = "open"
		}
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Locker:"), valueStyle.Render(lock))
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Last access:"), valueStyle.Render(st.LastAccess.String()))
		fmt.Fprintf(&b, "%s %d   %s %d", labelStyle.Render("Saved cards:"), st.SavedCards,
			labelStyle.Render("Accesses:"), st.AccessCount)
		if st.Error != 0 {
			fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Error:"), errorStyle.Render(fmt.Sprintf("%d", st.Error)))
		}
	default:
		fmt.Fprintf(&b, "%s %s", labelStyle.Render("Status:"), valueStyle.Render(st.String()))
	}
	return b.String()
}

func (m monitorModel) renderEvents() string {
	// Calculate how many log entries we can show
	logHeight := m.height - m.height/3 - 14
	if logHeight < 5 {
		logHeight = 5
	}

	if len(m.events) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	var b strings.Builder
	startIdx := len(m.events) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}
	for i := startIdx; i < len(m.events); i++ {
		entry := m.events[i]
		timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
		if entry.isError {
			fmt.Fprintf(&b, "%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message))
		} else {
			fmt.Fprintf(&b, "%s %s\n", headerStyle.Render(timestamp), infoStyle.Render("ℹ "+entry.message))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
