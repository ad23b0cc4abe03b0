package taskform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/taskboard/internal/model"
)

// SubmitMsg is dispatched when the user confirms the add-task form.
type SubmitMsg struct {
	Draft model.TaskDraft
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	task       string
	assignedTo string
	dueDate    string
}

// Model is the Bubble Tea model for the add-task form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	creatorID string
	width     int
	height    int
}

// New creates a new task form model for the given principal.
func New(creatorID string, width, height int) Model {
	return Model{
		fb:        &formBindings{},
		creatorID: creatorID,
		width:     width,
		height:    height,
	}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Start resets the fields and builds a fresh form with the current
// assignment choices.
func (m *Model) Start(users []model.User) tea.Cmd {
	m.fb.task = ""
	m.fb.assignedTo = ""
	m.fb.dueDate = ""

	options := make([]huh.Option[string], 0, len(users)+1)
	options = append(options, huh.NewOption("(unassigned)", ""))
	for _, u := range users {
		options = append(options, huh.NewOption(u.Email, u.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Placeholder("what needs doing?").
				Value(&m.fb.task).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("task text must not be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Assign to").
				Options(options...).
				Value(&m.fb.assignedTo),
			huh.NewInput().
				Title("Due date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.dueDate).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := model.ParseDate(strings.TrimSpace(s))
					return err
				}),
		),
	).WithWidth(m.width - 4)

	return m.form.Init()
}

// Update handles messages for the form view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		draft := m.draft()
		return m, tea.Batch(cmd, func() tea.Msg {
			return SubmitMsg{Draft: draft}
		})
	}
	if m.form.State == huh.StateAborted {
		return m, tea.Batch(cmd, func() tea.Msg { return CancelMsg{} })
	}

	return m, cmd
}

// draft assembles the insert request from the bound field values.
func (m Model) draft() model.TaskDraft {
	draft := model.TaskDraft{
		Task:      strings.TrimSpace(m.fb.task),
		CreatorID: m.creatorID,
	}
	if m.fb.assignedTo != "" {
		v := m.fb.assignedTo
		draft.AssignedTo = &v
	}
	if s := strings.TrimSpace(m.fb.dueDate); s != "" {
		if d, err := model.ParseDate(s); err == nil {
			draft.DueDate = &d
		}
	}
	return draft
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}
