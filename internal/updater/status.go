package updater

import "fmt"

// State is the phase of an update run.
type State int

const (
	Checking State = iota
	CheckingForUpdates
	UpdateAvailable
	NoUpdate
	Downloading
	Installing
	Complete
	Errored
)

var stateNames = [...]string{
	Checking:           "checking",
	CheckingForUpdates: "checking_for_updates",
	UpdateAvailable:    "update_available",
	NoUpdate:           "no_update",
	Downloading:        "downloading",
	Installing:         "installing",
	Complete:           "complete",
	Errored:            "error",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Status is the observable state of the engine. Version is set for
// UpdateAvailable, Progress for Downloading and Message for Errored.
type Status struct {
	State    State   `json:"state"`
	Version  string  `json:"version,omitempty"`
	Progress float64 `json:"progress,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// String renders a short status line.
func (s Status) String() string {
	switch s.State {
	case Checking:
		return "Checking..."
	case CheckingForUpdates:
		return "Checking for updates..."
	case UpdateAvailable:
		return fmt.Sprintf("Update available: v%s", s.Version)
	case NoUpdate:
		return "You are on the latest version."
	case Downloading:
		return fmt.Sprintf("Downloading... %.0f%%", s.Progress*100)
	case Installing:
		return "Installing update..."
	case Complete:
		return "Update complete. Restart the server to use the new version."
	case Errored:
		return "Error: " + s.Message
	}
	return s.State.String()
}
