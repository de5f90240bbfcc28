package dispatch

// registry holds the request table and the signature registry.
// Callers hold the dispatch lock.
type registry struct {
	byKey       map[Key]*Request
	bySignature map[string]*Request
}

func newRegistry() *registry {
	return &registry{
		byKey:       make(map[Key]*Request),
		bySignature: make(map[string]*Request),
	}
}

// lookup returns the live request for a key.
func (r *registry) lookup(key Key) (*Request, bool) {
	req, ok := r.byKey[key]
	return req, ok
}

// pending returns the live singleton registered for a signature.
func (r *registry) pending(signature string) (*Request, bool) {
	if signature == "" {
		return nil, false
	}
	req, ok := r.bySignature[signature]
	return req, ok
}

// add registers a request under its key and, for singletons, its signature.
// It returns false when the signature slot is already taken.
func (r *registry) add(req *Request) bool {
	if req.kind == KindSingleton {
		if _, exists := r.bySignature[req.signature]; exists {
			return false
		}
		r.bySignature[req.signature] = req
	}
	r.byKey[req.key] = req
	return true
}

// remove drops req from both tables. Entries owned by another request stay.
func (r *registry) remove(req *Request) {
	if cur, ok := r.byKey[req.key]; ok && cur == req {
		delete(r.byKey, req.key)
	}
	if req.kind != KindSingleton {
		return
	}
	if cur, ok := r.bySignature[req.signature]; ok && cur == req {
		delete(r.bySignature, req.signature)
	}
}

// drain empties both tables and returns every request that was live.
func (r *registry) drain() []*Request {
	out := make([]*Request, 0, len(r.byKey))
	for _, req := range r.byKey {
		out = append(out, req)
	}
	for _, req := range r.bySignature {
		if cur, ok := r.byKey[req.key]; !ok || cur != req {
			out = append(out, req)
		}
	}
	clear(r.byKey)
	clear(r.bySignature)
	return out
}

func (r *registry) len() int {
	return len(r.byKey)
}
