package session

import "sync"

// Notice levels.
const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

// Notice is a user-visible message produced by a session operation.
type Notice struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Navigator receives the navigation and notice side effects of session operations.
type Navigator interface {
	Navigate(path string)
	Notify(n Notice)
}

// Flash is a Navigator that keeps the latest navigation target and pending notices
// until a reader takes them.
type Flash struct {
	mu       sync.Mutex
	redirect string
	notices  []Notice
}

func (f *Flash) Navigate(path string) {
	f.mu.Lock()
	f.redirect = path
	f.mu.Unlock()
}

func (f *Flash) Notify(n Notice) {
	f.mu.Lock()
	f.notices = append(f.notices, n)
	f.mu.Unlock()
}

// Take returns and clears the pending redirect and notices.
func (f *Flash) Take() (redirect string, notices []Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	redirect, notices = f.redirect, f.notices
	f.redirect, f.notices = "", nil
	return redirect, notices
}
