package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stockpicker/internal/config"
	"stockpicker/internal/domain"
	"stockpicker/internal/routing"
)

// Styles.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	nameStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	govStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	comStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	priorityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func quadrantStyle(q domain.Quadrant) lipgloss.Style {
	switch q {
	case domain.QuadrantGovernmentAPI, domain.QuadrantGovernmentMCP:
		return govStyle
	default:
		return comStyle
	}
}

type model struct {
	router   *routing.Router
	input    textinput.Model
	criteria domain.Criteria
	results  []routing.Selection
	errMsg   string
	ran      bool
}

func newModel(router *routing.Router) model {
	ti := textinput.New()
	ti.Placeholder = "companies=AAPL,MSFT type=fundamental realtime series=GDP sector=Technology"
	ti.Prompt = promptStyle.Render("criteria> ")
	ti.Width = 90
	ti.Focus()
	return model{router: router, input: ti}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "q" || line == "quit" {
				return m, tea.Quit
			}
			criteria, err := parseCriteria(line)
			if err != nil {
				m.errMsg = err.Error()
				m.ran = false
				return m, nil
			}
			m.criteria = criteria
			m.results = m.router.Select(criteria)
			m.errMsg = ""
			m.ran = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("stockpicker routing console"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.errMsg != "":
		b.WriteString(errStyle.Render("error: " + m.errMsg))
		b.WriteString("\n")
	case m.ran && len(m.results) == 0:
		b.WriteString(dimStyle.Render("no collectors selected"))
		b.WriteString("\n")
	case m.ran:
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-14s %-16s %s", "#", "COLLECTOR", "QUADRANT", "PRIORITY")))
		b.WriteString("\n")
		for i, sel := range m.results {
			b.WriteString(fmt.Sprintf("%-4d %s %s %s\n",
				i+1,
				nameStyle.Render(fmt.Sprintf("%-14s", sel.Name)),
				quadrantStyle(sel.Quadrant).Render(fmt.Sprintf("%-16s", sel.Quadrant)),
				priorityStyle.Render(strconv.Itoa(sel.Priority)),
			))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("keys: companies= sector= index= series= type= realtime   esc to quit"))
	b.WriteString("\n")
	return b.String()
}

// parseCriteria turns "key=value" tokens into a Criteria. A bare "realtime"
// token sets the real-time flag.
func parseCriteria(line string) (domain.Criteria, error) {
	var criteria domain.Criteria
	if line == "" {
		return criteria, nil
	}

	for _, token := range strings.Fields(line) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			if key == "realtime" {
				criteria.RealTime = true
				continue
			}
			return criteria, fmt.Errorf("expected key=value, got %q", token)
		}

		switch key {
		case "companies":
			criteria.Companies = strings.Split(value, ",")
		case "sector":
			criteria.Sector = value
		case "index":
			criteria.Index = value
		case "series":
			criteria.EconomicSeries = strings.Split(value, ",")
		case "type":
			switch domain.AnalysisType(value) {
			case domain.AnalysisFundamental, domain.AnalysisScreening,
				domain.AnalysisSentiment, domain.AnalysisMacro:
				criteria.AnalysisType = domain.AnalysisType(value)
			default:
				return criteria, fmt.Errorf("unknown analysis type %q", value)
			}
		case "realtime":
			criteria.RealTime = value == "true" || value == "1"
		default:
			return criteria, fmt.Errorf("unknown key %q", key)
		}
	}
	return criteria, nil
}

func main() {
	registry, err := routing.DefaultRegistry(config.RoutingConfig{})
	if err != nil {
		log.Fatalf("building registry: %v", err)
	}
	router := routing.NewRouter(registry, 0)

	p := tea.NewProgram(newModel(router), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "console error: %v\n", err)
		os.Exit(1)
	}
}
