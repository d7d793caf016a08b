package bus

import "sync"

// Recorder collects every message posted on a bus. It is used by the CLI to
// summarize a run and by tests. Getters wait for pending deliveries, so they
// see every message posted before the call.
type Recorder struct {
	bus      *Bus
	mu       sync.Mutex
	tags     []TagMessage
	errors   []ErrorMessage
	warnings []WarningMessage
	cancel   []func()
}

// NewRecorder subscribes a recorder to all topics of b.
func NewRecorder(b *Bus) (*Recorder, error) {
	r := &Recorder{bus: b}
	steps := []func() (func(), error){
		func() (func(), error) { return b.OnTags(r.addTags) },
		func() (func(), error) { return b.OnError(r.addError) },
		func() (func(), error) { return b.OnWarning(r.addWarning) },
	}
	for _, step := range steps {
		stop, err := step()
		if err != nil {
			r.Close()
			return nil, err
		}
		r.cancel = append(r.cancel, stop)
	}
	return r, nil
}

// Close removes the recorder's subscriptions.
func (r *Recorder) Close() {
	for _, stop := range r.cancel {
		stop()
	}
	r.cancel = nil
}

// Tags returns recorded tag messages.
func (r *Recorder) Tags() []TagMessage {
	r.bus.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TagMessage(nil), r.tags...)
}

// Errors returns recorded error messages.
func (r *Recorder) Errors() []ErrorMessage {
	r.bus.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ErrorMessage(nil), r.errors...)
}

// Warnings returns recorded warning messages.
func (r *Recorder) Warnings() []WarningMessage {
	r.bus.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]WarningMessage(nil), r.warnings...)
}

func (r *Recorder) addTags(msg TagMessage) {
	r.mu.Lock()
	r.tags = append(r.tags, msg)
	r.mu.Unlock()
}

func (r *Recorder) addError(msg ErrorMessage) {
	r.mu.Lock()
	r.errors = append(r.errors, msg)
	r.mu.Unlock()
}

func (r *Recorder) addWarning(msg WarningMessage) {
	r.mu.Lock()
	r.warnings = append(r.warnings, msg)
	r.mu.Unlock()
}
