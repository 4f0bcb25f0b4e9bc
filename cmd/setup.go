package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/busyrockin/vaultdb/core"
	"github.com/busyrockin/vaultdb/ui"
	"github.com/spf13/cobra"
)

type setupModel struct {
	db               *core.DB
	step             int
	categoryOptions  []string
	selectedCategory int
	name             string
	url              string
	secretValue      string
	err              error
	done             bool
}

var categoryTemplates = []string{
	core.DefaultCategory,
	"work",
	"personal",
	"infra",
	"custom",
}

func newSetupModel(db *core.DB) setupModel {
	return setupModel{
		db:              db,
		step:            0,
		categoryOptions: categoryTemplates,
	}
}

func (m setupModel) Init() tea.Cmd {
	return nil
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up", "k":
			if m.step == 0 && m.selectedCategory > 0 {
				m.selectedCategory--
			}

		case "down", "j":
			if m.step == 0 && m.selectedCategory < len(m.categoryOptions)-1 {
				m.selectedCategory++
			}

		case "backspace":
			switch m.step {
			case 1:
				if len(m.name) > 0 {
					m.name = m.name[:len(m.name)-1]
				}
			case 2:
				if len(m.url) > 0 {
					m.url = m.url[:len(m.url)-1]
				}
			case 3:
				if len(m.secretValue) > 0 {
					m.secretValue = m.secretValue[:len(m.secretValue)-1]
				}
			}

		default:
			if len(msg.String()) == 1 {
				switch m.step {
				case 1:
					m.name += msg.String()
				case 2:
					m.url += msg.String()
				case 3:
					m.secretValue += msg.String()
				}
			}
		}
	}

	return m, nil
}

func (m setupModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case 0: // Category selection
		m.step = 1
		return m, nil

	case 1: // Name
		if m.name == "" {
			m.err = fmt.Errorf("name cannot be empty")
			return m, nil
		}
		m.step = 2
		m.err = nil
		return m, nil

	case 2: // URL
		if m.url == "" {
			m.err = fmt.Errorf("url cannot be empty")
			return m, nil
		}
		m.step = 3
		m.err = nil
		return m, nil

	case 3: // Secret value
		if m.secretValue == "" {
			m.err = fmt.Errorf("secret value cannot be empty")
			return m, nil
		}

		meta := core.DefaultMetadata()
		meta.Name = m.name
		meta.URL = m.url
		meta.Category = m.categoryOptions[m.selectedCategory]

		rec := core.DecryptedRecord{Metadata: meta, Secrets: core.Secrets{Password: m.secretValue}}
		if _, err := m.db.Insert(rec); err != nil {
			m.err = fmt.Errorf("failed to save: %w", err)
			return m, nil
		}

		m.done = true
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m setupModel) View() string {
	if m.done {
		return m.renderSuccess()
	}

	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render("vaultdb"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(ui.StatusErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	switch m.step {
	case 0:
		b.WriteString(m.renderCategorySelection())
	case 1:
		b.WriteString(m.renderName())
	case 2:
		b.WriteString(m.renderURL())
	case 3:
		b.WriteString(m.renderSecret())
	}

	return ui.BoxStyle.Render(b.String())
}

func (m setupModel) renderCategorySelection() string {
	var b strings.Builder

	b.WriteString(ui.SubtitleStyle.Render("Select Category:"))
	b.WriteString("\n\n")

	for i, category := range m.categoryOptions {
		if i == m.selectedCategory {
			b.WriteString(ui.SelectedStyle.Render("❯ " + category))
		} else {
			b.WriteString(ui.NormalStyle.Render("  " + category))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(ui.HelpStyle.Render("[↑↓] Navigate  [Enter] Select  [Esc] Cancel"))

	return b.String()
}

func (m setupModel) renderName() string {
	var b strings.Builder

	category := m.categoryOptions[m.selectedCategory]
	b.WriteString(ui.SubtitleStyle.Render(fmt.Sprintf("Category: %s", category)))
	b.WriteString("\n\n")

	b.WriteString("Name: ")
	b.WriteString(ui.Primary.Render(m.name + "_"))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpStyle.Render("[Type] Enter name  [Enter] Continue  [Esc] Cancel"))

	return b.String()
}

func (m setupModel) renderURL() string {
	var b strings.Builder

	b.WriteString(ui.SubtitleStyle.Render(fmt.Sprintf("Record: %s", m.name)))
	b.WriteString("\n\n")

	b.WriteString("URL: ")
	b.WriteString(ui.Primary.Render(m.url + "_"))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpStyle.Render("[Type] Enter url  [Enter] Continue  [Esc] Cancel"))

	return b.String()
}

func (m setupModel) renderSecret() string {
	var b strings.Builder

	b.WriteString(ui.SubtitleStyle.Render(fmt.Sprintf("Record: %s @ %s", m.name, m.url)))
	b.WriteString("\n\n")

	masked := strings.Repeat("*", len(m.secretValue))
	b.WriteString("Secret: ")
	b.WriteString(ui.Primary.Render(masked + "_"))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpStyle.Render("[Type] Enter value  [Enter] Save  [Esc] Cancel"))

	return b.String()
}

func (m setupModel) renderSuccess() string {
	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render("✓ Secret Saved"))
	b.WriteString("\n\n")
	b.WriteString(ui.Success.Render(fmt.Sprintf("Successfully saved: %s", m.name)))
	b.WriteString("\n\n")
	b.WriteString(ui.SubtitleStyle.Render("You can now access this secret with:"))
	b.WriteString("\n")
	b.WriteString(ui.NormalStyle.Render(fmt.Sprintf("  vaultdb get %s %s", m.name, m.url)))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpStyle.Render("Press any key to exit"))

	return ui.BoxStyle.Render(b.String())
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive secret setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openVault()
		if err != nil {
			return err
		}
		defer db.Shutdown()

		m := newSetupModel(db)
		p := tea.NewProgram(m)

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("setup wizard failed: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
