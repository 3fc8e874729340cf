package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/topostack/pkg/graph"
)

// browseCommand creates the browse command, an interactive device list over
// a layout document.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <document.json>",
		Short: "Browse the devices of a layout document interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := graph.ReadDocumentFile(args[0])
			if err != nil {
				return err
			}
			if len(doc.Nodes) == 0 {
				printInfo(cmd.OutOrStdout(), "Document has no devices")
				return nil
			}
			p := tea.NewProgram(NewDeviceListModel(doc),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			_, err = p.Run()
			return err
		},
	}
}

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	detailBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	filterOnStyle   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	unresolvedStyle = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// DeviceListModel - Interactive device browser
// =============================================================================

// DeviceListModel is the bubbletea model of the browse command. Tab cycles
// a datacenter filter; enter toggles a detail pane for the selected device.
type DeviceListModel struct {
	Doc         graph.Document
	Datacenters []string // filter values; "" shows every device
	Filter      int
	Rows        []graph.DocumentNode
	Cursor      int
	Offset      int
	Height      int
	Detail      bool

	neighbors map[string][]string
}

// NewDeviceListModel creates a browser over doc.
func NewDeviceListModel(doc graph.Document) DeviceListModel {
	m := DeviceListModel{
		Doc:         doc,
		Datacenters: []string{""},
		Height:      15,
		neighbors:   make(map[string][]string),
	}
	seen := map[string]bool{}
	for _, n := range doc.Nodes {
		if dc, ok := n.Identity.Datacenter(); ok && !seen[dc] {
			seen[dc] = true
			m.Datacenters = append(m.Datacenters, dc)
		}
	}
	slices.Sort(m.Datacenters[1:])
	for _, e := range doc.Edges {
		m.neighbors[e.Source] = append(m.neighbors[e.Source], e.LinkType+" "+e.Target)
		m.neighbors[e.Target] = append(m.neighbors[e.Target], e.LinkType+" "+e.Source)
	}
	m.applyFilter()
	return m
}

func (m *DeviceListModel) applyFilter() {
	dc := m.Datacenters[m.Filter]
	m.Rows = make([]graph.DocumentNode, 0, len(m.Doc.Nodes))
	for _, n := range m.Doc.Nodes {
		if got, _ := n.Identity.Datacenter(); dc == "" || got == dc {
			m.Rows = append(m.Rows, n)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m DeviceListModel) Init() tea.Cmd {
	return nil
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "tab":
			m.Filter = (m.Filter + 1) % len(m.Datacenters)
			m.applyFilter()
		case "enter":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		if m.Detail {
			m.Height = max(m.Height-8, 3)
		}
	}
	return m, nil
}

// Selected returns the device under the cursor.
func (m DeviceListModel) Selected() (graph.DocumentNode, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return graph.DocumentNode{}, false
	}
	return m.Rows[m.Cursor], true
}

func (m DeviceListModel) View() string {
	var b strings.Builder

	title := "Devices"
	if m.Doc.Datacenter != "" {
		title += " · " + strings.ToUpper(m.Doc.Datacenter)
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("  ")
	b.WriteString(m.filterLine())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab datacenter  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		dc, _ := n.Identity.Datacenter()
		rows = append(rows, []string{
			cursor, n.ID, orDash(strings.ToUpper(dc)), orDash(n.PositionName),
			string(n.Identity.Method()), fmt.Sprintf("%.1f", n.Z),
			fmt.Sprintf("%.2f, %.2f", n.X, n.Y),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Device", "DC", "Position", "Method", "Layer", "X, Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if !m.Rows[idx].Identity.Valid() {
				base = unresolvedStyle
			}
			if col >= 5 {
				base = base.Foreground(colorGray)
			}
			if idx == m.Cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Rows)), len(m.Rows))))

	if n, ok := m.Selected(); ok && m.Detail {
		b.WriteString("\n")
		b.WriteString(m.detail(n))
	}
	return b.String()
}

func (m DeviceListModel) filterLine() string {
	parts := make([]string, len(m.Datacenters))
	for i, dc := range m.Datacenters {
		label := strings.ToUpper(dc)
		if dc == "" {
			label = "ALL"
		}
		if i == m.Filter {
			parts[i] = filterOnStyle.Render(label)
		} else {
			parts[i] = listDimStyle.Render(label)
		}
	}
	return strings.Join(parts, " ")
}

func (m DeviceListModel) detail(n graph.DocumentNode) string {
	var b strings.Builder
	line := func(k, v string) {
		b.WriteString(detailKeyStyle.Render(k) + " " + StyleValue.Render(v) + "\n")
	}
	line("device", n.ID)
	typ, _ := n.Identity.DeviceType()
	line("type", orDash(strings.TrimSpace(typ+" "+n.Icon.Description)))
	if n.LegacyType != "" {
		line("legacy", n.LegacyType)
	}
	line("lane", fmt.Sprintf("%d", n.Identity.Lane()))
	line("position", fmt.Sprintf("%.2f, %.2f, %.2f", n.X, n.Y, n.Z))
	if peer, ok := m.haPeer(n.ID); ok {
		line("ha peer", peer)
	}
	nb := m.neighbors[n.ID]
	if len(nb) == 0 {
		line("links", "—")
	}
	for i, s := range nb {
		key := ""
		if i == 0 {
			key = "links"
		}
		line(key, s)
	}
	return detailBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m DeviceListModel) haPeer(id string) (string, bool) {
	for _, p := range m.Doc.HAPairs {
		switch id {
		case p.A:
			return p.B, true
		case p.B:
			return p.A, true
		}
	}
	return "", false
}
