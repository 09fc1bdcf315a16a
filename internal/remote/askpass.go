package remote

import (
	"fmt"
	"os"

	"al.essio.dev/pkg/shellescape"
)

// askpassScript is a one-shot credential prompt for ssh's SSH_ASKPASS hook. It unlinks itself
// before answering so the credential is on disk only until ssh first asks for it.
type askpassScript struct {
	path string
}

// writeAskpass creates an owner-only executable script in dir that prints password once.
func writeAskpass(dir, password string) (*askpassScript, error) {
	file, err := os.CreateTemp(dir, "pm-askpass-*.sh")
	if err != nil {
		return nil, fmt.Errorf("failed to create askpass script: %w", err)
	}

	path := file.Name()
	body := fmt.Sprintf("#!/bin/sh\nrm -f -- %s\nprintf '%%s\\n' %s\n",
		shellescape.Quote(path), shellescape.Quote(password))

	_, writeErr := file.WriteString(body)
	closeErr := file.Close()

	if writeErr != nil || closeErr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write askpass script: %w", firstErr(writeErr, closeErr))
	}

	err = os.Chmod(path, 0o700) // #nosec G302 - script must be executable by its owner only
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to restrict askpass script: %w", err)
	}

	return &askpassScript{path: path}, nil
}

// env returns the variables that make ssh use the script without a terminal.
func (a *askpassScript) env() []string {
	env := []string{
		"SSH_ASKPASS=" + a.path,
		"SSH_ASKPASS_REQUIRE=force",
	}

	// ssh before 8.4 ignores SSH_ASKPASS_REQUIRE and wants a display.
	if os.Getenv("DISPLAY") == "" {
		env = append(env, "DISPLAY=:0")
	}

	return env
}

// remove unlinks the script if it has not already removed itself.
func (a *askpassScript) remove() {
	if a == nil {
		return
	}

	_ = os.Remove(a.path)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
