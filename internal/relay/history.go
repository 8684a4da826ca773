package relay

// ChatRecord is one chat message kept for replay to late joiners.
type ChatRecord struct {
	Data   string
	Sender string
	Origin string // connection that sent it
}

// history buffers recent chat per room so a late joiner sees what was said
// during this process's uptime. Each room keeps at most cap records; the
// oldest are evicted first. Records outlive room membership: a room that
// empties and refills within one process keeps its history.
type history struct {
	cap    int
	byRoom map[string][]ChatRecord
}

func newHistory(cap int) *history {
	return &history{cap: cap, byRoom: make(map[string][]ChatRecord)}
}

func (h *history) record(path string, rec ChatRecord) {
	recs := append(h.byRoom[path], rec)
	if len(recs) > h.cap {
		recs = recs[len(recs)-h.cap:]
	}
	h.byRoom[path] = recs
}

// replay returns the room's buffered records in insertion order.
func (h *history) replay(path string) []ChatRecord {
	return h.byRoom[path]
}
