package bot

import "sync"

// renderTracker remembers the message IDs of the most recently rendered
// todo listing per chat, so page navigation can delete the previous page
// instead of stacking listings in the chat history.
type renderTracker struct {
	mu       sync.Mutex
	rendered map[int64][]int
}

func newRenderTracker() *renderTracker {
	return &renderTracker{rendered: make(map[int64][]int)}
}

// replace swaps the tracked set for a chat and returns the previous one.
func (t *renderTracker) replace(chatID int64, messageIDs []int) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.rendered[chatID]
	if len(messageIDs) == 0 {
		delete(t.rendered, chatID)
	} else {
		t.rendered[chatID] = messageIDs
	}
	return prev
}

// take removes and returns the tracked set for a chat.
func (t *renderTracker) take(chatID int64) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.rendered[chatID]
	delete(t.rendered, chatID)
	return prev
}
