package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Notifier subscribes a handler to a termination signal. Implementations must
// invoke the handler at most once per signal kind, however many times the
// signal is delivered.
type Notifier interface {
	Subscribe(sig os.Signal, handler func(os.Signal))
}

// SignalNotifier is the os/signal backed Notifier. Once subscribed, a signal
// stays captured for the life of the process so repeat deliveries are
// swallowed rather than falling back to the default (kill) behaviour.
type SignalNotifier struct {
	subscribed map[os.Signal]chan os.Signal
	mu         sync.Mutex
}

func NewSignalNotifier() *SignalNotifier {
	return &SignalNotifier{
		subscribed: make(map[os.Signal]chan os.Signal),
	}
}

func (n *SignalNotifier) Subscribe(sig os.Signal, handler func(os.Signal)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subscribed[sig]; exists {
		return
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	n.subscribed[sig] = ch

	go func() {
		var once sync.Once
		for received := range ch {
			once.Do(func() {
				go handler(received)
			})
		}
	}()
}

// Stop releases every subscription, restoring default signal handling
func (n *SignalNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for sig, ch := range n.subscribed {
		signal.Stop(ch)
		close(ch)
		delete(n.subscribed, sig)
	}
}

// SignalName renders the conventional name, e.g. SIGINT rather than "interrupt"
func SignalName(sig os.Signal) string {
	switch sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	}
	return sig.String()
}
