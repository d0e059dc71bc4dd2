package assignment

// Progress describes one processed repository.
type Progress struct {
	Operation  string
	Pass       string
	Repository string
	Index      int // 1-based
	Total      int
}

// Observer is notified once per processed repository.
type Observer interface {
	Observe(p Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Progress)

// Observe calls f(p).
func (f ObserverFunc) Observe(p Progress) { f(p) }

type noopObserver struct{}

func (noopObserver) Observe(Progress) {}
