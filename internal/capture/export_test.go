package capture

import "time"

func SetClock(m *Manager, now func() time.Time) {
	m.now = now
}
