package relay

import "time"

// presence records when each connection joined, for session metrics. It has
// no bearing on routing.
type presence map[string]time.Time

func (p presence) markOnline(connID string, at time.Time) {
	p[connID] = at
}

// markOffline removes the record and reports how long the connection was
// online, if it ever joined.
func (p presence) markOffline(connID string, now time.Time) (time.Duration, bool) {
	at, ok := p[connID]
	if !ok {
		return 0, false
	}
	delete(p, connID)
	return now.Sub(at), true
}
