// Package recognizer defines the face-identification boundary consumed by the
// scan service. The engine never performs recognition itself; deployments
// plug in a real client, while the bundled mock reproduces the kiosk demo
// behavior.
package recognizer

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"sync"
)

// Recognizer identifies the student standing in front of the camera.
type Recognizer interface {
	// IdentifyNew returns the identity for a fresh IN scan, given the display
	// names already recorded for the session.
	IdentifyNew(existing []string) string
	// IdentifyActive selects which of the currently-active students is in
	// frame for an automatic OUT scan. ok is false when none can be picked.
	IdentifyActive(active []string) (name string, ok bool)
}

var digits = regexp.MustCompile(`\d+`)

// Mock is a stand-in recognizer: IN scans mint sequential "Student N"
// placeholder identities and automatic OUT scans pick a uniformly random
// active student.
type Mock struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewMock constructs a mock recognizer seeded from the provided source.
func NewMock(seed int64) *Mock {
	return &Mock{rand: rand.New(rand.NewSource(seed))}
}

// IdentifyNew returns the next sequential placeholder identity, continuing
// from the highest number embedded in the existing names.
func (m *Mock) IdentifyNew(existing []string) string {
	max := 0
	for _, name := range existing {
		match := digits.FindString(name)
		if match == "" {
			continue
		}
		if n, err := strconv.Atoi(match); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("Student %d", max+1)
}

// IdentifyActive picks one active student at random.
func (m *Mock) IdentifyActive(active []string) (string, bool) {
	if len(active) == 0 {
		return "", false
	}
	m.mu.Lock()
	idx := m.rand.Intn(len(active))
	m.mu.Unlock()
	return active[idx], true
}
