package prompt

import (
	"github.com/manifoldco/promptui"
)

// Password prompts for a secret input with masking. Used for the metadata
// service API key, which must never echo to the terminal.
func Password(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}
