package session

import "time"

// Event is one engine observation: a state transition, a strategy attempt,
// a handshake step, a login attempt, or a probe verdict.
type Event struct {
	Time    time.Time
	Kind    string // "state", "strategy", "handshake", "login", "probe", "mode"
	Name    string
	Outcome string
	Detail  string
}

// Recorder receives engine events. Record must not block: the engine calls
// it inline from the connect path.
type Recorder interface {
	Record(ev Event)
}

type nopRecorder struct{}

func (nopRecorder) Record(Event) {}

func (e *Engine) record(kind, name, outcome, detail string) {
	e.recorder.Record(Event{
		Time:    time.Now(),
		Kind:    kind,
		Name:    name,
		Outcome: outcome,
		Detail:  detail,
	})
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
