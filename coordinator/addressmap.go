package coordinator

import (
	"mcmini/model"
	"mcmini/process"
)

// The bidirectional association between remote addresses of primitives in
// the child and object ids in the program model.
//
// Each remote address maps to at most one object id, and each object id
// corresponds to at most one remote address during a given child's
// lifetime. The map survives child re-creations: children forked from the
// same program image allocate their primitives at the same addresses in the
// same order, so an id assigned in an earlier execution stays valid. Ids
// are handed out densely in order of first observation.
//
// Only the coordinator constructs instances, which guarantees that the
// underlying program model is the live one.
type AddressMap struct {
	c *Coordinator

	objectOf map[process.RemoteAddress]model.ObjectId
	addrOf   map[model.ObjectId]process.RemoteAddress
	runnerOf map[model.ObjectId]model.RunnerId

	nextObject model.ObjectId
	nextRunner model.RunnerId
}

func newAddressMap(c *Coordinator) *AddressMap {
	return &AddressMap{
		c:        c,
		objectOf: map[process.RemoteAddress]model.ObjectId{},
		addrOf:   map[model.ObjectId]process.RemoteAddress{},
		runnerOf: map[model.ObjectId]model.RunnerId{},
	}
}

// The live program model the map feeds observations into.
func (am *AddressMap) Program() *model.Program {
	return am.c.Program()
}

func (am *AddressMap) Contains(addr process.RemoteAddress) bool {
	return am.GetModelOf(addr) != model.InvalidId
}

// The object id for the given remote address, or InvalidId if the address
// has never been observed.
func (am *AddressMap) GetModelOf(addr process.RemoteAddress) model.ObjectId {
	if id, ok := am.objectOf[addr]; ok {
		return id
	}
	return model.InvalidId
}

// The remote address an object id was first observed at.
func (am *AddressMap) RemoteAddressOf(id model.ObjectId) (process.RemoteAddress, bool) {
	addr, ok := am.addrOf[id]
	return addr, ok
}

// Record the presence of a visible object at the given address. Idempotent:
// an already-observed address keeps its id. The fallback state is used when
// the object is not yet present in the live model, which happens both on
// genuine first observation and when the model was rebuilt for a fresh
// child.
func (am *AddressMap) ObserveObject(addr process.RemoteAddress, fallback model.VisibleObject) model.ObjectId {
	if id, ok := am.objectOf[addr]; ok {
		am.Program().PutObject(id, fallback)
		return id
	}
	id := am.nextObject
	am.nextObject++
	am.objectOf[addr] = id
	am.addrOf[id] = addr
	am.Program().PutObject(id, fallback)
	return id
}

// Like ObserveObject for a newborn runner: additionally allocates the dense
// runner id and installs start(rid, oid) as the runner's initial pending
// transition when the runner is new to the live model.
func (am *AddressMap) ObserveRunner(addr process.RemoteAddress, fallback *model.Thread,
	start func(model.RunnerId, model.ObjectId) *model.Transition) model.RunnerId {

	if oid, ok := am.objectOf[addr]; ok {
		rid := am.runnerOf[oid]
		am.Program().PutRunner(rid, oid, fallback, start)
		return rid
	}
	oid := am.nextObject
	am.nextObject++
	rid := am.nextRunner
	am.nextRunner++
	am.objectOf[addr] = oid
	am.addrOf[oid] = addr
	am.runnerOf[oid] = rid
	am.Program().PutRunner(rid, oid, fallback, start)
	return rid
}
