package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient implements paho.Client for tests.
type fakeClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	connectErr  error
	published   []published
	publishErrs []error
	disconnects int
}

func (f *fakeClient) IsConnected() bool { return true }
func (f *fakeClient) Connect() paho.Token {
	if f.connectErr != nil {
		return &fakeToken{err: f.connectErr}
	}
	if f.opts != nil && f.opts.OnConnect != nil {
		f.opts.OnConnect(f)
	}
	return &fakeToken{}
}
func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()
}
func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body string
	switch v := payload.(type) {
	case string:
		body = v
	case []byte:
		body = string(v)
	}
	f.published = append(f.published, published{topic, qos, retained, body})
	if len(f.publishErrs) > 0 {
		err := f.publishErrs[0]
		f.publishErrs = f.publishErrs[1:]
		return &fakeToken{err: err}
	}
	return &fakeToken{}
}
func (f *fakeClient) Subscribe(string, byte, paho.MessageHandler) paho.Token { return &fakeToken{} }
func (f *fakeClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &fakeToken{}
}
func (f *fakeClient) Unsubscribe(...string) paho.Token        { return &fakeToken{} }
func (f *fakeClient) AddRoute(string, paho.MessageHandler)    {}
func (f *fakeClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (f *fakeClient) IsConnectionOpen() bool                  { return true }

func (f *fakeClient) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

type fakeToken struct{ err error }

func (d fakeToken) Wait() bool                     { return true }
func (d fakeToken) WaitTimeout(time.Duration) bool { return true }
func (d fakeToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d fakeToken) Error() error                   { return d.err }

// useFake swaps the client constructor for the duration of a test.
func useFake(t interface{ Cleanup(func()) }, fc *fakeClient) {
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { fc.opts = o; return fc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}
