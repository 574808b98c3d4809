package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// StateStore is the shared coordination tree every client reads and writes.
// Paths are slash-separated ("rooms/TACO/gameState"). Values are the JSON
// data model: map[string]any, []any, string, float64, bool, nil.
//
// Guarantees:
//   - a subscriber observes commits to a given path in commit order
//   - AtomicUpdate is atomic for its single target path only
//   - no atomicity across paths; multi-field consistency requires Patch
type StateStore interface {
	Read(path string) (any, error)
	Write(path string, value any) error
	Patch(path string, fields map[string]any) error
	Delete(path string) error
	AtomicUpdate(path string, fn func(current any) (any, error)) error
	Subscribe(path string, onChange func(value any)) (unsubscribe func())
}

var errNotAnObject = errors.New("store: value at path is not an object")

type subscriber struct {
	path []string
	mu   sync.Mutex
	cond *sync.Cond
	que  []any
	done bool
}

func newSubscriber(path []string) *subscriber {
	s := &subscriber{path: path}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscriber) push(v any) {
	s.mu.Lock()
	s.que = append(s.que, v)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscriber) stop() {
	s.mu.Lock()
	s.done = true
	s.cond.Signal()
	s.mu.Unlock()
}

// drain delivers queued snapshots in order on a dedicated goroutine, so a
// slow callback never blocks committers or reorders anyone else's deliveries.
func (s *subscriber) drain(onChange func(any)) {
	for {
		s.mu.Lock()
		for len(s.que) == 0 && !s.done {
			s.cond.Wait()
		}
		if s.done && len(s.que) == 0 {
			s.mu.Unlock()
			return
		}
		next := s.que[0]
		s.que = s.que[1:]
		s.mu.Unlock()

		onChange(next)
	}
}

// memoryStore is the in-process StateStore. One mutex guards the whole tree,
// which makes AtomicUpdate's read-modify-write trivially uncontested.
type memoryStore struct {
	mu   sync.Mutex
	root map[string]any
	subs map[*subscriber]struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		root: make(map[string]any),
		subs: make(map[*subscriber]struct{}),
	}
}

func splitPath(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinPath(parts ...string) string {
	return strings.Join(parts, "/")
}

// normalize round-trips a value through JSON so the tree only ever holds
// the JSON data model, whatever typed struct the caller handed in.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return out, nil
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, child := range t {
			m[k] = deepCopy(child)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, child := range t {
			s[i] = deepCopy(child)
		}
		return s
	default:
		return v
	}
}

// getLocked walks the tree; missing nodes read as nil, like the original
// store's nonexistent snapshots. Numeric segments index into arrays, so
// "matches/0/responseA" addresses a field of the first match.
func (ms *memoryStore) getLocked(parts []string) any {
	var cur any = ms.root
	for _, p := range parts {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[p]
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

// setNode writes value at parts below node, creating intermediate objects.
// A nil value deletes the addressed node so empty snapshots and deletions
// look alike. Array elements are only addressable while they exist; a write
// past the end is dropped rather than growing the array.
func setNode(node any, parts []string, value any) any {
	if len(parts) == 0 {
		return value
	}
	p := parts[0]

	switch t := node.(type) {
	case map[string]any:
		child := setNode(t[p], parts[1:], value)
		if child == nil {
			delete(t, p)
		} else {
			t[p] = child
		}
		return t
	case []any:
		i, err := strconv.Atoi(p)
		if err != nil || i < 0 || i >= len(t) {
			return t
		}
		t[i] = setNode(t[i], parts[1:], value)
		return t
	default:
		if value == nil {
			return node
		}
		m := make(map[string]any)
		m[p] = setNode(nil, parts[1:], value)
		return m
	}
}

func (ms *memoryStore) setLocked(parts []string, value any) error {
	if len(parts) == 0 {
		if value == nil {
			ms.root = make(map[string]any)
			return nil
		}
		obj, ok := value.(map[string]any)
		if !ok {
			return errNotAnObject
		}
		ms.root = obj
		return nil
	}

	root := setNode(ms.root, parts, value)
	obj, ok := root.(map[string]any)
	if !ok {
		return errNotAnObject
	}
	ms.root = obj
	return nil
}

// overlaps reports whether a commit at changed is visible from a
// subscription at sub (one is a prefix of the other).
func overlaps(sub, changed []string) bool {
	n := min(len(sub), len(changed))
	for i := 0; i < n; i++ {
		if sub[i] != changed[i] {
			return false
		}
	}
	return true
}

func (ms *memoryStore) notifyLocked(changed []string) {
	for sub := range ms.subs {
		if overlaps(sub.path, changed) {
			sub.push(deepCopy(ms.getLocked(sub.path)))
		}
	}
}

func (ms *memoryStore) Read(path string) (any, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return deepCopy(ms.getLocked(splitPath(path))), nil
}

func (ms *memoryStore) Write(path string, value any) error {
	norm, err := normalize(value)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	parts := splitPath(path)
	if err := ms.setLocked(parts, norm); err != nil {
		return err
	}
	ms.notifyLocked(parts)
	return nil
}

// Patch updates only the named fields. Keys may themselves be nested paths
// ("players/abc/score"), so one Patch can commit a multi-field update that
// subscribers observe as a single change.
func (ms *memoryStore) Patch(path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	normFields := make(map[string]any, len(fields))
	for k, v := range fields {
		norm, err := normalize(v)
		if err != nil {
			return err
		}
		normFields[k] = norm
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	parts := splitPath(path)
	for k, v := range normFields {
		if err := ms.setLocked(append(append([]string{}, parts...), splitPath(k)...), v); err != nil {
			return err
		}
	}
	ms.notifyLocked(parts)
	return nil
}

func (ms *memoryStore) Delete(path string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	parts := splitPath(path)
	if err := ms.setLocked(parts, nil); err != nil {
		return err
	}
	ms.notifyLocked(parts)
	return nil
}

// AtomicUpdate runs fn against a snapshot of the path and commits the result
// in one step. fn returning the input unchanged is still committed; fn
// returning an error aborts without writing.
func (ms *memoryStore) AtomicUpdate(path string, fn func(current any) (any, error)) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	parts := splitPath(path)
	next, err := fn(deepCopy(ms.getLocked(parts)))
	if err != nil {
		return err
	}
	norm, err := normalize(next)
	if err != nil {
		return err
	}
	if err := ms.setLocked(parts, norm); err != nil {
		return err
	}
	ms.notifyLocked(parts)
	return nil
}

func (ms *memoryStore) Subscribe(path string, onChange func(value any)) func() {
	sub := newSubscriber(splitPath(path))

	ms.mu.Lock()
	ms.subs[sub] = struct{}{}
	// Initial snapshot, mirroring the original store's fire-on-attach.
	sub.push(deepCopy(ms.getLocked(sub.path)))
	ms.mu.Unlock()

	go sub.drain(onChange)

	return func() {
		ms.mu.Lock()
		delete(ms.subs, sub)
		ms.mu.Unlock()
		sub.stop()
	}
}

// readAs decodes the value at path into a typed struct via JSON.
func readAs[T any](st StateStore, path string, out *T) (bool, error) {
	v, err := st.Read(path)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

// decodeAs converts an already-read store value into a typed struct.
func decodeAs[T any](v any, out *T) (bool, error) {
	if v == nil {
		return false, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}
