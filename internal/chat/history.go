package chat

// historyBuffer keeps the last N messages published to a room, evicting the
// oldest first. It is not safe for concurrent use on its own; the owning
// room state's lock guards every call, which is what keeps snapshots taken
// at subscribe time ordered strictly before any later publish.
type historyBuffer struct {
	entries []Message
	head    int
	size    int
}

func newHistoryBuffer(capacity int) *historyBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &historyBuffer{entries: make([]Message, capacity)}
}

// append records a message, overwriting the oldest entry when full.
func (h *historyBuffer) append(msg Message) {
	h.entries[h.head] = msg
	h.head = (h.head + 1) % len(h.entries)
	if h.size < len(h.entries) {
		h.size++
	}
}

// snapshot returns the buffered messages oldest first. The returned slice
// is a copy and stays valid after further appends.
func (h *historyBuffer) snapshot() []Message {
	out := make([]Message, 0, h.size)
	start := h.head - h.size
	if start < 0 {
		start += len(h.entries)
	}
	for i := 0; i < h.size; i++ {
		out = append(out, h.entries[(start+i)%len(h.entries)])
	}
	return out
}
