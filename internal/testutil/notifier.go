package testutil

import (
	"sync"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
)

// Notice is one recorded notification.
type Notice struct {
	Message  string
	Severity models.Severity
}

// RecordingNotifier keeps every notification it receives.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Notify(message string, severity models.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Message: message, Severity: severity})
}

// Notices returns everything recorded so far.
func (n *RecordingNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice{}, n.notices...)
}

// Count returns how many notifications with severity were recorded.
func (n *RecordingNotifier) Count(severity models.Severity) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, x := range n.notices {
		if x.Severity == severity {
			c++
		}
	}
	return c
}

// Last returns the most recent notification.
func (n *RecordingNotifier) Last() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return Notice{}, false
	}
	return n.notices[len(n.notices)-1], true
}
