package binding

import "sort"

// Registry maps instance ids to live instances. It is confined to the loop
// goroutine: Initialize and Destroy write it, Dispatch reads it. No locking.
type Registry struct {
	instances map[string]*Instance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]*Instance)}
}

// Get returns the instance registered under id.
func (r *Registry) Get(id string) (*Instance, bool) {
	inst, ok := r.instances[id]
	return inst, ok
}

// Put records inst, returning the instance it replaced, if any.
func (r *Registry) Put(inst *Instance) *Instance {
	prev := r.instances[inst.id]
	r.instances[inst.id] = inst
	return prev
}

// Delete removes id and returns the removed instance.
func (r *Registry) Delete(id string) (*Instance, bool) {
	inst, ok := r.instances[id]
	if ok {
		delete(r.instances, id)
	}
	return inst, ok
}

// Len reports the number of live instances.
func (r *Registry) Len() int {
	return len(r.instances)
}

// IDs lists instance ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
