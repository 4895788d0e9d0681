package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// errNotConfirmed is returned when the user declines a confirmation.
var errNotConfirmed = errors.New("cancelled")

// confirm gates irreversible actions. --yes skips the question; without it a
// non-interactive session is refused rather than silently proceeding.
func confirm(app *App, yes bool, title, description string) error {
	if yes {
		return nil
	}
	if app.IsInteractive == nil || !app.IsInteractive() {
		return fmt.Errorf("%s: confirmation required, rerun with --yes", title)
	}

	ask := app.Confirm
	if ask == nil {
		ask = huhConfirm
	}
	ok, err := ask(title, description)
	if err != nil {
		return err
	}
	if !ok {
		return errNotConfirmed
	}
	return nil
}

func huhConfirm(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
