package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrExists = errors.New("config file already exists")

// WriteTemplate writes a placeholder config file to fill in from the browser dev tools.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, path)
		}
	}

	spaces, err := json.MarshalIndent(map[string]string{
		"space_id_1": "Space 1",
		"space_id_2": "Space 2",
		"space_id_3": "Space 3",
	}, "", "  ")
	if err != nil {
		return err
	}
	tmpl := map[string]string{
		"SKEDDA_BASE_URL": DefaultBaseURL,
		"SKEDDA_VENUE_ID": "your_venue_id_here",
		"SKEDDA_USER_ID":  "your_user_id_here",
		"SKEDDA_COOKIES":  "your_cookies_here",
		"SKEDDA_TOKEN":    "your_token_here",
		"SKEDDA_SPACES":   string(spaces),
		"note":            "get from browser devtools",
	}
	b, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o600)
}
