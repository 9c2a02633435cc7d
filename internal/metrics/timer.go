package metrics

import (
	"sync"
	"time"
)

// Timer measures one activity. It records when stopped, at most once.
type Timer struct {
	recorder *Recorder
	activity string
	filename string
	start    time.Time

	once    sync.Once
	elapsed time.Duration
}

// StartTimer starts timing activity, optionally tied to filename.
// A nil recorder yields a timer that measures but records nothing.
func (r *Recorder) StartTimer(activity, filename string) *Timer {
	t := &Timer{
		recorder: r,
		activity: activity,
		filename: filename,
	}
	if r != nil {
		t.start = r.clock()
	} else {
		t.start = time.Now()
	}
	return t
}

// Stop records the elapsed time and returns it. Later calls return the
// first measurement without recording again.
func (t *Timer) Stop() time.Duration {
	t.once.Do(func() {
		if t.recorder == nil {
			t.elapsed = time.Since(t.start)
			return
		}
		t.elapsed = t.recorder.clock().Sub(t.start)
		t.recorder.RecordTiming(t.activity, t.filename, t.elapsed)
	})
	return t.elapsed
}

// Time runs fn and records how long it took, whether fn returns an error
// or panics.
func (r *Recorder) Time(activity, filename string, fn func() error) error {
	t := r.StartTimer(activity, filename)
	defer t.Stop()
	return fn()
}
