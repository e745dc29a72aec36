package model

import "testing"

func lock(r RunnerId, m ObjectId) Transition {
	return Transition{Executor: r, Type: MutexLock, Object: m, Aux: InvalidId}
}

func unlock(r RunnerId, m ObjectId) Transition {
	return Transition{Executor: r, Type: MutexUnlock, Object: m, Aux: InvalidId}
}

func initMutex(r RunnerId, m ObjectId) Transition {
	return Transition{Executor: r, Type: MutexInit, Object: m, Aux: InvalidId}
}

func enqueue(r RunnerId, c, m ObjectId) Transition {
	return Transition{Executor: r, Type: CondEnqueue, Object: c, Aux: m}
}

func resume(r RunnerId, c, m ObjectId) Transition {
	return Transition{Executor: r, Type: CondWaitResume, Object: c, Aux: m}
}

var relationTests = []struct {
	name      string
	a, b      Transition
	depends   bool
	coenabled bool
}{
	{"lock lock same mutex", lock(1, 2), lock(2, 2), true, false},
	{"lock lock disjoint", lock(1, 2), lock(2, 3), false, true},
	{"lock unlock same mutex", lock(1, 2), unlock(2, 2), true, true},
	{"lock init same mutex", lock(1, 2), initMutex(2, 2), true, false},
	{"unlock unlock same mutex", unlock(1, 2), unlock(2, 2), true, true},
	{"create start same thread",
		Transition{Executor: 0, Type: ThreadCreate, Object: 5, Aux: InvalidId},
		Transition{Executor: 1, Type: ThreadStart, Object: 5, Aux: InvalidId},
		true, false},
	{"create join same thread",
		Transition{Executor: 0, Type: ThreadCreate, Object: 5, Aux: InvalidId},
		Transition{Executor: 0, Type: ThreadJoin, Object: 5, Aux: InvalidId},
		true, false},
	{"join exit same thread",
		Transition{Executor: 0, Type: ThreadJoin, Object: 5, Aux: InvalidId},
		Transition{Executor: 1, Type: ThreadExit, Object: 5, Aux: InvalidId},
		true, true},
	{"join join different threads",
		Transition{Executor: 0, Type: ThreadJoin, Object: 5, Aux: InvalidId},
		Transition{Executor: 1, Type: ThreadJoin, Object: 6, Aux: InvalidId},
		false, true},
	{"enqueue behaves as unlock against lock", enqueue(1, 4, 2), lock(2, 2), true, true},
	{"enqueue lock disjoint mutex", enqueue(1, 4, 2), lock(2, 3), false, true},
	{"enqueue enqueue same cond", enqueue(1, 4, 2), enqueue(2, 4, 2), true, false},
	{"enqueue enqueue same mutex only", enqueue(1, 4, 2), enqueue(2, 5, 2), true, true},
	{"enqueue enqueue disjoint", enqueue(1, 4, 2), enqueue(2, 5, 3), false, true},
	{"resume behaves as lock against lock", resume(1, 4, 2), lock(2, 2), true, false},
	{"resume resume same mutex", resume(1, 4, 2), resume(2, 5, 2), true, false},
	{"signal enqueue same cond",
		Transition{Executor: 1, Type: CondSignal, Object: 4, Aux: InvalidId},
		enqueue(2, 4, 2), true, true},
	{"thread ops disjoint from mutex ops",
		Transition{Executor: 0, Type: ThreadExit, Object: 1, Aux: InvalidId},
		lock(1, 2), false, true},
}

func TestRelations(t *testing.T) {
	for i, test := range relationTests {
		if got := Depends(test.a, test.b); got != test.depends {
			t.Errorf("Test %v (%v): Depends = %v. Expected %v", i, test.name, got, test.depends)
		}
		if got := CoEnabled(test.a, test.b); got != test.coenabled {
			t.Errorf("Test %v (%v): CoEnabled = %v. Expected %v", i, test.name, got, test.coenabled)
		}
	}
}

// Both relations must be symmetric for every registered and unregistered
// pair.
func TestRelationsAreSymmetric(t *testing.T) {
	for i, test := range relationTests {
		if Depends(test.a, test.b) != Depends(test.b, test.a) {
			t.Errorf("Test %v (%v): Depends is not symmetric", i, test.name)
		}
		if CoEnabled(test.a, test.b) != CoEnabled(test.b, test.a) {
			t.Errorf("Test %v (%v): CoEnabled is not symmetric", i, test.name)
		}
	}
}

// Transitions with disjoint object id sets are independent regardless of
// their variants.
func TestDisjointObjectsAreIndependent(t *testing.T) {
	variants := []Transition{
		initMutex(0, 2), lock(0, 2), unlock(0, 2),
		{Executor: 0, Type: ThreadCreate, Object: 7, Aux: InvalidId},
		{Executor: 0, Type: ThreadJoin, Object: 7, Aux: InvalidId},
		{Executor: 0, Type: ThreadExit, Object: 7, Aux: InvalidId},
		enqueue(0, 4, 2),
		{Executor: 0, Type: CondSignal, Object: 4, Aux: InvalidId},
	}
	disjoint := []Transition{
		initMutex(1, 12), lock(1, 12), unlock(1, 12),
		{Executor: 1, Type: ThreadJoin, Object: 17, Aux: InvalidId},
		enqueue(1, 14, 12),
	}
	for i, a := range variants {
		for j, b := range disjoint {
			if Depends(a, b) {
				t.Errorf("Test (%v,%v): %v and %v share no objects but are dependent", i, j, a, b)
			}
		}
	}
}

func TestSameRunnerNeverCoEnabled(t *testing.T) {
	a := lock(1, 2)
	b := unlock(1, 3)
	if CoEnabled(a, b) {
		t.Errorf("Two transitions of runner 1 reported co-enabled: %v, %v", a, b)
	}
}
