package fiber

// Observer is notified as cycles progress. All methods run on the
// scheduler's goroutine and must not call back into the scheduler.
type Observer interface {
	// CycleStarted is called when a cycle begins its render phase.
	CycleStarted(c *Cycle)

	// SliceFinished is called at the end of every slice with the number of
	// units performed in it.
	SliceFinished(c *Cycle, units int)

	// CycleFinished is called once the cycle is complete; c.Err() tells
	// whether it committed.
	CycleFinished(c *Cycle)
}

// BaseObserver implements Observer with no-ops, for embedding.
type BaseObserver struct{}

func (BaseObserver) CycleStarted(*Cycle)       {}
func (BaseObserver) SliceFinished(*Cycle, int) {}
func (BaseObserver) CycleFinished(*Cycle)      {}

// ObserverFunc adapts a function to an Observer that only sees finished
// cycles.
type ObserverFunc func(c *Cycle)

func (ObserverFunc) CycleStarted(*Cycle)       {}
func (ObserverFunc) SliceFinished(*Cycle, int) {}
func (f ObserverFunc) CycleFinished(c *Cycle)  { f(c) }
