// Package interactive provides the survey-based terminal menus used when
// perfcompare is launched without arguments.
package interactive

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// ErrExit is returned when the user chooses to leave the menu.
var ErrExit = errors.New("exit")

// Item is one selectable menu entry.
type Item struct {
	Label   string
	Details string
	Run     func() error
}

// Menu is a titled list of items shown in a loop until the user exits or
// an item returns ErrExit.
type Menu struct {
	Title string
	Items []Item
}

// Show prompts once and runs the chosen item. Returns ErrExit when the
// user picks the exit entry or cancels the prompt.
func (m *Menu) Show() error {
	labels := make([]string, 0, len(m.Items)+1)
	byLabel := make(map[string]Item, len(m.Items))
	for _, item := range m.Items {
		label := item.Label
		if item.Details != "" {
			label = fmt.Sprintf("%s - %s", item.Label, item.Details)
		}
		labels = append(labels, label)
		byLabel[label] = item
	}
	labels = append(labels, "Exit")

	var choice string
	prompt := &survey.Select{
		Message: m.Title,
		Options: labels,
	}
	if err := survey.AskOne(prompt, &choice); err != nil || choice == "Exit" {
		return ErrExit
	}

	return byLabel[choice].Run()
}

// Loop shows the menu repeatedly until it returns ErrExit.
func (m *Menu) Loop() {
	for {
		if err := m.Show(); errors.Is(err, ErrExit) {
			return
		} else if err != nil {
			fmt.Printf("\nError: %v\n", err)
			PauseForEnter()
		}
	}
}

// Select prompts the user to pick one of options.
func Select(message string, options []string) (string, error) {
	var selected string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", ErrExit
	}
	return selected, nil
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(message string) bool {
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	_ = survey.AskOne(prompt, &confirmed)
	return confirmed
}

// PauseForEnter waits for the user to press Enter.
func PauseForEnter() {
	fmt.Println("\nPress Enter to continue...")
	_, _ = fmt.Scanln()
}
