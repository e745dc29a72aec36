package model

// Dependency and co-enabledness are registered by unordered pairs of
// variants in a two-dimensional dispatch table. Unregistered pairs default
// to independent and co-enabled. Independence is the unsafe default: every
// variant pair that can touch the same object must be audited here when a
// new variant is added.
//
// Both relations are consulted only after the tie-break rule: transitions
// referencing disjoint object id sets are always independent.

type relationFn func(a, b Transition) bool

var (
	dependencies  = map[[2]Type]relationFn{}
	coenabledness = map[[2]Type]relationFn{}
)

func registerPair(table map[[2]Type]relationFn, x, y Type, fn relationFn) {
	table[[2]Type{x, y}] = fn
	if x != y {
		table[[2]Type{y, x}] = func(a, b Transition) bool { return fn(b, a) }
	}
}

func always(Transition, Transition) bool { return true }
func never(Transition, Transition) bool  { return false }

func init() {
	// Mutex operations on a shared mutex never commute.
	for _, ty := range []Type{MutexInit, MutexLock, MutexUnlock} {
		for _, other := range []Type{MutexInit, MutexLock, MutexUnlock} {
			registerPair(dependencies, ty, other, always)
		}
	}
	registerPair(coenabledness, MutexLock, MutexLock, never)
	registerPair(coenabledness, MutexLock, MutexInit, never)

	// Thread lifecycle. A start or join on a shared thread is ordered with
	// respect to its creation; a join completes only against the exit.
	registerPair(dependencies, ThreadCreate, ThreadStart, always)
	registerPair(dependencies, ThreadCreate, ThreadJoin, always)
	registerPair(dependencies, ThreadJoin, ThreadExit, always)
	registerPair(coenabledness, ThreadCreate, ThreadStart, never)
	registerPair(coenabledness, ThreadCreate, ThreadJoin, never)

	// A cond enqueue releases its mutex, so against mutex operations it
	// behaves as an unlock of that mutex. A wait resume reacquires the
	// mutex, so it behaves as a lock.
	for _, ty := range []Type{MutexInit, MutexLock, MutexUnlock} {
		registerPair(dependencies, CondEnqueue, ty, always)
		registerPair(dependencies, CondWaitResume, ty, always)
	}
	registerPair(coenabledness, CondWaitResume, MutexLock, func(a, b Transition) bool {
		return a.Aux != b.Object
	})
	registerPair(coenabledness, CondWaitResume, MutexInit, func(a, b Transition) bool {
		return a.Aux != b.Object
	})
	registerPair(coenabledness, CondWaitResume, CondWaitResume, func(a, b Transition) bool {
		return a.Aux != b.Aux
	})

	// Operations on a shared condition variable all touch the wait queue.
	condOps := []Type{CondInit, CondEnqueue, CondWaitResume, CondSignal, CondBroadcast, CondDestroy}
	for i, ty := range condOps {
		for _, other := range condOps[i:] {
			registerPair(dependencies, ty, other, always)
		}
	}
	// Only one enqueue on a given condition variable can complete the
	// release of the mutex; two enqueues sharing only the mutex behave as
	// two unlocks and can be co-pending.
	registerPair(coenabledness, CondEnqueue, CondEnqueue, func(a, b Transition) bool {
		return a.Object != b.Object
	})
}

func sharesObject(a, b Transition) bool {
	return a.references(b.Object) || a.references(b.Aux)
}

// The happens-before dependency relation. Symmetric. Transitions that
// reference disjoint object id sets are independent.
func Depends(a, b Transition) bool {
	if !sharesObject(a, b) {
		return false
	}
	if fn, ok := dependencies[[2]Type{a.Type, b.Type}]; ok {
		return fn(a, b)
	}
	return false
}

// True if both transitions can simultaneously be in the pending set of some
// reachable state. Symmetric. A runner announces one transition at a time,
// so two transitions of the same runner are never co-enabled.
func CoEnabled(a, b Transition) bool {
	if a.Executor == b.Executor {
		return false
	}
	if fn, ok := coenabledness[[2]Type{a.Type, b.Type}]; ok && sharesObject(a, b) {
		return fn(a, b)
	}
	return true
}
