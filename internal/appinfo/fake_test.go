package appinfo

import (
	"sync"
	"time"

	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// fakeClient is a scripted stand-in for the real CM adapter. Connect and
// LogOnAnonymously push their result events into the queue the way the real
// client's network thread would; tests deliver metadata batches explicitly.
type fakeClient struct {
	queue chan Event

	mu          sync.Mutex
	connects    int
	logons      int
	disconnects int
	requested   []model.AppID

	// logonErr, when set, makes the next logon attempt fail.
	logonErr error
	// logonDelay postpones the logon result event.
	logonDelay time.Duration
	// dropOnLogon emits a disconnect instead of a logon result.
	dropOnLogon bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{queue: make(chan Event, 64)}
}

func (c *fakeClient) Connect() {
	c.mu.Lock()
	c.connects++
	c.mu.Unlock()
	c.queue <- ConnectedEvent{}
}

func (c *fakeClient) Disconnect() {
	c.mu.Lock()
	c.disconnects++
	c.mu.Unlock()
}

func (c *fakeClient) LogOnAnonymously() {
	c.mu.Lock()
	c.logons++
	err := c.logonErr
	delay := c.logonDelay
	drop := c.dropOnLogon
	c.mu.Unlock()

	emit := func() {
		if drop {
			c.queue <- DisconnectedEvent{}
			return
		}
		c.queue <- LoggedOnEvent{Err: err}
	}
	if delay > 0 {
		time.AfterFunc(delay, emit)
		return
	}
	emit()
}

func (c *fakeClient) RequestAppInfo(id model.AppID) {
	c.mu.Lock()
	c.requested = append(c.requested, id)
	c.mu.Unlock()
}

func (c *fakeClient) PumpEvents(timeout time.Duration) ([]Event, error) {
	var events []Event
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-c.queue:
		events = append(events, ev)
	case <-timer.C:
		return nil, nil
	}
	for {
		select {
		case ev := <-c.queue:
			events = append(events, ev)
		default:
			return events, nil
		}
	}
}

// deliver queues a metadata batch as if it had arrived from the network.
func (c *fakeClient) deliver(apps map[model.AppID]*model.KeyValue) {
	c.queue <- AppInfoEvent{Apps: apps}
}

func (c *fakeClient) connectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

func (c *fakeClient) requestedIDs() []model.AppID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]model.AppID, len(c.requested))
	copy(ids, c.requested)
	return ids
}

func (c *fakeClient) setLogonErr(err error) {
	c.mu.Lock()
	c.logonErr = err
	c.mu.Unlock()
}

func payloadFor(name string) *model.KeyValue {
	return &model.KeyValue{
		Name: name,
		Children: []*model.KeyValue{
			{Name: "common", Children: []*model.KeyValue{{Name: "name", Value: name}}},
		},
	}
}
