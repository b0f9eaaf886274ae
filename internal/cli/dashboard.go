package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/drover-cli/drover/pkg/models"
)

// refreshInterval is how often the dashboard reloads project state.
const refreshInterval = 2 * time.Second

type projectRow struct {
	identity string
	summary  models.Summary
}

type dashboardModel struct {
	width  int
	height int

	rows     []projectRow
	selected int

	// Expanded task view for the selected project, nil while collapsed.
	detail *models.Project

	loading bool
	err     error
}

// dataLoadedMsg carries reloaded project rows back to the model.
type dataLoadedMsg struct {
	rows []projectRow
	err  error
}

// detailLoadedMsg carries one project's full tree back to the model.
type detailLoadedMsg struct {
	project *models.Project
	err     error
}

type tickMsg time.Time

// Style definitions.
var (
	dashTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("240"))

	dashHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{loading: true}
}

func loadRows() tea.Msg {
	entries, err := Store.List()
	if err != nil {
		return dataLoadedMsg{err: err}
	}
	rows := make([]projectRow, len(entries))
	for i, e := range entries {
		rows[i] = projectRow{identity: e.Identity, summary: e.Summary}
	}
	return dataLoadedMsg{rows: rows}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(loadRows, scheduleTick())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.detail != nil && msg.String() == "esc" {
				m.detail = nil
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
			return m, nil
		case "enter":
			if m.selected < len(m.rows) {
				identity := m.rows[m.selected].identity
				return m, func() tea.Msg {
					project, err := Store.Load(identity)
					return detailLoadedMsg{project: project, err: err}
				}
			}
			return m, nil
		case "r":
			m.loading = true
			return m, loadRows
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(loadRows, scheduleTick())

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rows = msg.rows
		if m.selected >= len(m.rows) && len(m.rows) > 0 {
			m.selected = len(m.rows) - 1
		}
		m.err = nil
		return m, nil

	case detailLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.detail = msg.project
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := dashTitleStyle.Render(" Drover Projects ")
	help := dashHelpStyle.Render("↑/↓: select | enter: tasks | esc: back | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}
	if m.detail != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.renderDetail(), help)
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.renderRows(), help)
}

func (m dashboardModel) renderRows() string {
	if len(m.rows) == 0 {
		return "  No projects found."
	}

	var b strings.Builder
	for i, row := range m.rows {
		s := row.summary
		line := fmt.Sprintf("  %-18s %-12s %s %3d/%-3d %s",
			row.identity, s.Status, progressBar(s.Progress, 10),
			s.CompletedTasks, s.TotalTasks, s.Name)
		if i == m.selected {
			line = selectedRowStyle.Render(line)
		} else {
			line = styleForProjectStatus(s.Status).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m dashboardModel) renderDetail() string {
	var b strings.Builder
	b.WriteString(statusTitleStyle.Render("  " + m.detail.Name))
	b.WriteString("\n")
	for i := range m.detail.Phases {
		phase := &m.detail.Phases[i]
		b.WriteString(fmt.Sprintf("\n  %s (%d/%d)\n", phase.Name, phase.CompletedTasks(), len(phase.Tasks)))
		for j := range phase.Tasks {
			t := &phase.Tasks[j]
			line := fmt.Sprintf("    %s %-12s %s", statusGlyph(t.Status), t.ID, t.Name)
			b.WriteString(styleForTaskStatus(t.Status).Render(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live terminal view of all projects",
	Long: `Open an interactive terminal dashboard showing every project's progress,
refreshing every few seconds. Select a project to expand its task list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("services not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
