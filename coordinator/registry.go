package coordinator

import (
	"fmt"

	"mcmini/mailbox"
	"mcmini/model"
	"mcmini/process"
)

// A discovery callback parses the payload a runner wrote into its mailbox
// into a model transition, observing any newly referenced primitives
// through the address map. A nil transition without an error is rejected by
// the coordinator as an execution error.
type DiscoveryCallback func(executor model.RunnerId, mb *mailbox.Mailbox, am *AddressMap) (*model.Transition, error)

// The runtime transition registry: variant tag to discovery callback.
// The tag space is shared with the trampoline library in the child.
type Registry struct {
	callbacks map[mailbox.Tag]DiscoveryCallback
}

func NewRegistry() *Registry {
	return &Registry{callbacks: map[mailbox.Tag]DiscoveryCallback{}}
}

func (r *Registry) Register(tag mailbox.Tag, cb DiscoveryCallback) {
	r.callbacks[tag] = cb
}

// The callback registered for the tag, or nil.
func (r *Registry) CallbackFor(tag mailbox.Tag) DiscoveryCallback {
	return r.callbacks[tag]
}

// The registry for the baseline checker: every pthread variant the
// trampoline announces.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(mailbox.TagMutexInit, readMutexOp(model.MutexInit))
	r.Register(mailbox.TagMutexLock, readMutexOp(model.MutexLock))
	r.Register(mailbox.TagMutexUnlock, readMutexOp(model.MutexUnlock))
	r.Register(mailbox.TagThreadCreate, readThreadCreate)
	r.Register(mailbox.TagThreadStart, readThreadStart)
	r.Register(mailbox.TagThreadExit, readThreadExit)
	r.Register(mailbox.TagThreadJoin, readThreadJoin)
	r.Register(mailbox.TagCondInit, readCondOp(model.CondInit))
	r.Register(mailbox.TagCondEnqueue, readCondMutexOp(model.CondEnqueue))
	r.Register(mailbox.TagCondWaitResume, readCondMutexOp(model.CondWaitResume))
	r.Register(mailbox.TagCondSignal, readCondOp(model.CondSignal))
	r.Register(mailbox.TagCondBroadcast, readCondOp(model.CondBroadcast))
	r.Register(mailbox.TagCondDestroy, readCondOp(model.CondDestroy))
	return r
}

// Payload convention: word 0 carries the primary primitive's address,
// word 1 the secondary one (the mutex of a condition variable operation).

func readMutexOp(ty model.Type) DiscoveryCallback {
	return func(executor model.RunnerId, mb *mailbox.Mailbox, am *AddressMap) (*model.Transition, error) {
		addr := process.RemoteAddress(mb.Word(0))
		if addr == 0 {
			return nil, fmt.Errorf("coordinator: a mutex operation posted a null address")
		}
		id := am.ObserveObject(addr, model.NewMutex())
		return &model.Transition{Executor: executor, Type: ty, Object: id, Aux: model.InvalidId}, nil
	}
}

func readThreadCreate(executor model.RunnerId, mb *mailbox.Mailbox, am *AddressMap) (*model.Transition, error) {
	addr := process.RemoteAddress(mb.Word(0))
	if addr == 0 {
		return nil, fmt.Errorf("coordinator: thread creation posted a null thread handle")
	}
	am.ObserveRunner(addr, model.NewThread(), model.StartTransition)
	oid := am.GetModelOf(addr)
	return &model.Transition{Executor: executor, Type: model.ThreadCreate, Object: oid, Aux: model.InvalidId}, nil
}

func readThreadStart(executor model.RunnerId, mb *mailbox.Mailbox, am *AddressMap) (*model.Transition, error) {
	addr := process.RemoteAddress(mb.Word(0))
	if addr == 0 {
		return nil, fmt.Errorf("coordinator: thread start posted a null thread handle")
	}
	am.ObserveRunner(addr, model.NewMainThread(), nil)
	oid := am.GetModelOf(addr)
	return &model.Transition{Executor: executor, Type: model.ThreadStart, Object: oid, Aux: model.InvalidId}, nil
}

func readThreadExit(executor model.RunnerId, mb *mailbox.Mailbox, am *AddressMap) (*model.Transition, error) {
	oid := am.Program().RunnerObject(executor)
	if oid == model.InvalidId {
		return nil, fmt.Errorf("coordinator: runner %v announced an exit but is not in the model", executor)
	}
	return &model.Transition{Executor: executor, Type: model.ThreadExit, Object: oid, Aux: model.InvalidId}, nil
}

func readThreadJoin(executor model.RunnerId, mb *mailbox.Mailbox, am *AddressMap) (*model.Transition, error) {
	addr := process.RemoteAddress(mb.Word(0))
	if addr == 0 {
		return nil, fmt.Errorf("coordinator: thread join posted a null thread handle")
	}
	am.ObserveRunner(addr, model.NewThread(), model.StartTransition)
	oid := am.GetModelOf(addr)
	return &model.Transition{Executor: executor, Type: model.ThreadJoin, Object: oid, Aux: model.InvalidId}, nil
}

func readCondOp(ty model.Type) DiscoveryCallback {
	return func(executor model.RunnerId, mb *mailbox.Mailbox, am *AddressMap) (*model.Transition, error) {
		addr := process.RemoteAddress(mb.Word(0))
		if addr == 0 {
			return nil, fmt.Errorf("coordinator: a condition variable operation posted a null address")
		}
		id := am.ObserveObject(addr, model.NewCondVar())
		return &model.Transition{Executor: executor, Type: ty, Object: id, Aux: model.InvalidId}, nil
	}
}

func readCondMutexOp(ty model.Type) DiscoveryCallback {
	return func(executor model.RunnerId, mb *mailbox.Mailbox, am *AddressMap) (*model.Transition, error) {
		condAddr := process.RemoteAddress(mb.Word(0))
		mutexAddr := process.RemoteAddress(mb.Word(1))
		if condAddr == 0 || mutexAddr == 0 {
			return nil, fmt.Errorf("coordinator: a condition variable wait posted a null address")
		}
		cid := am.ObserveObject(condAddr, model.NewCondVar())
		mid := am.ObserveObject(mutexAddr, model.NewMutex())
		return &model.Transition{Executor: executor, Type: ty, Object: cid, Aux: mid}, nil
	}
}
