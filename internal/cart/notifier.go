package cart

import "sync"

// Notifier fans out cart counts to per-user subscribers. A subscriber only
// ever holds the latest count.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription is a live listener for one user's cart count. Stop it when
// the consumer goes away.
type Subscription struct {
	C <-chan int

	ch       chan int
	userID   string
	notifier *Notifier
	once     sync.Once
}

// Subscribe starts listening to userID's cart count.
func (n *Notifier) Subscribe(userID string) *Subscription {
	ch := make(chan int, 1)
	sub := &Subscription{C: ch, ch: ch, userID: userID, notifier: n}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs[userID] == nil {
		n.subs[userID] = make(map[*Subscription]struct{})
	}
	n.subs[userID][sub] = struct{}{}
	return sub
}

// Publish delivers count to every subscriber of userID, replacing any
// value they have not read yet.
func (n *Notifier) Publish(userID string, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs[userID] {
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- count
	}
}

// Subscribers reports how many listeners userID has.
func (n *Notifier) Subscribers(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[userID])
}

// Stop detaches the subscription and closes C. It is safe to call twice.
func (s *Subscription) Stop() {
	s.once.Do(func() {
		n := s.notifier
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[s.userID], s)
		if len(n.subs[s.userID]) == 0 {
			delete(n.subs, s.userID)
		}
		close(s.ch)
	})
}
