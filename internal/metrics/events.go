package metrics

import (
	"sort"
	"sync"
	"time"

	"optioncatalog/logger"
)

// Event is one catalog metric as emitted through EmitMetric. Durations are
// carried in milliseconds.
type Event struct {
	At        time.Time
	Component string
	Name      string
	Value     float64
	Kind      string
	Dims      logger.Fields
}

// Sink receives every emitted event. Sinks run on the emitting goroutine.
type Sink func(Event)

// SinkID identifies a subscription; zero is never issued.
type SinkID uint64

var sinks = struct {
	sync.RWMutex
	next SinkID
	m    map[SinkID]Sink
}{m: make(map[SinkID]Sink)}

// Subscribe adds a sink. A nil sink is ignored and yields zero.
func Subscribe(s Sink) SinkID {
	if s == nil {
		return 0
	}
	sinks.Lock()
	defer sinks.Unlock()
	sinks.next++
	sinks.m[sinks.next] = s
	return sinks.next
}

func Unsubscribe(id SinkID) {
	sinks.Lock()
	delete(sinks.m, id)
	sinks.Unlock()
}

// EmitMetric logs the metric (publishing it to CloudWatch when enabled)
// and fans it out to subscribers. Unnamed or non-numeric metrics are
// dropped.
func EmitMetric(log *logger.Log, component, name string, value interface{}, kind string, dims logger.Fields) {
	if name == "" {
		return
	}
	v, ok := numeric(value)
	if !ok {
		return
	}
	if kind == "" {
		kind = "counter"
	}
	if log == nil {
		log = logger.GetLogger()
	}

	own := make(logger.Fields, len(dims))
	for k, val := range dims {
		own[k] = val
	}
	// LogMetric decorates the map it is handed.
	logFields := make(logger.Fields, len(own))
	for k, val := range own {
		logFields[k] = val
	}
	log.LogMetric(component, name, value, kind, logFields)

	ev := Event{At: time.Now(), Component: component, Name: name, Value: v, Kind: kind, Dims: own}
	sinks.RLock()
	targets := make([]Sink, 0, len(sinks.m))
	for _, s := range sinks.m {
		targets = append(targets, s)
	}
	sinks.RUnlock()
	for _, s := range targets {
		s(ev)
	}
}

func numeric(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case time.Duration:
		return float64(v) / float64(time.Millisecond), true
	}
	return 0, false
}

// Tally sums events per component and name, e.g. for an end of run
// summary.
type Tally struct {
	mu   sync.Mutex
	sums map[string]float64
}

func NewTally() *Tally { return &Tally{sums: make(map[string]float64)} }

// Observe is a Sink.
func (t *Tally) Observe(e Event) {
	t.mu.Lock()
	t.sums[e.Component+"."+e.Name] += e.Value
	t.mu.Unlock()
}

func (t *Tally) Sum(component, name string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sums[component+"."+name]
}

// Fields returns the non-zero sums keyed component.name.
func (t *Tally) Fields() logger.Fields {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.sums))
	for k := range t.sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(logger.Fields, len(keys))
	for _, k := range keys {
		if t.sums[k] != 0 {
			out[k] = t.sums[k]
		}
	}
	return out
}
