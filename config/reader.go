package config

// Reader exposes a Unit tree's inherited values — the result of
// walking every Unit in the tree inorder and combining their individual
// fields per §4.7's inheritance rules.
type Reader struct {
	unit *Unit
}

// NewReader wraps a root Unit for inherited-value queries.
func NewReader(unit *Unit) *Reader {
	return &Reader{unit: unit}
}

// inorderTraverser is a stack-based depth-first walk: pop the current
// top, then push its children, in their declared order, onto the same
// stack. That means a node's last child is visited directly after it
// and its earlier children are visited after every deeper descendant of
// the last child — not a textbook preorder, but the exact walk this
// configuration model has always used, so every inheritance rule below
// is defined relative to it rather than to a conventional traversal.
type inorderTraverser struct {
	todo []*Unit
}

func (r *Reader) inorder() *inorderTraverser {
	return &inorderTraverser{todo: []*Unit{r.unit}}
}

func (t *inorderTraverser) next() (*Unit, bool) {
	n := len(t.todo)
	if n == 0 {
		return nil, false
	}

	top := t.todo[n-1]
	t.todo = t.todo[:n-1]
	t.todo = append(t.todo, top.Units...)

	return top, true
}

// Tags unions the tags of every Unit in the tree.
func (r *Reader) Tags() map[string]struct{} {
	tags := map[string]struct{}{}

	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		for _, tag := range unit.Tags {
			tags[tag] = struct{}{}
		}
	}

	return tags
}

// Variables merges the variables map of every Unit in the tree; later
// entries (in traversal order) overwrite earlier ones with the same
// key.
func (r *Reader) Variables() map[string]interface{} {
	merged := map[string]interface{}{}

	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		for k, v := range unit.Variables {
			merged[k] = v
		}
	}

	return merged
}

// StartAfterCreate returns the first Unit-set value of start_after_create
// in traversal order, defaulting to false.
func (r *Reader) StartAfterCreate() bool {
	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		if unit.StartAfterCreate != nil {
			return *unit.StartAfterCreate
		}
	}

	return false
}

// DestroyAfterStop returns the first Unit-set value of
// destroy_after_stop in traversal order, defaulting to false.
func (r *Reader) DestroyAfterStop() bool {
	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		if unit.DestroyAfterStop != nil {
			return *unit.DestroyAfterStop
		}
	}

	return false
}

// VolumeKind returns the first Unit-set volume kind in traversal order,
// defaulting to VolumeAutomatic.
func (r *Reader) VolumeKind() VolumeKind {
	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		if unit.Volume != nil {
			return *unit.Volume
		}
	}

	return VolumeAutomatic
}

// From returns the first Unit-set "from" seed reference in traversal
// order, or "" if none set one.
func (r *Reader) From() string {
	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		if unit.From != "" {
			return unit.From
		}
	}

	return ""
}

// CreateHooks concatenates, across the whole tree in traversal order,
// the "on" hooks and then the "after" hooks of the create transition.
func (r *Reader) CreateHooks() (on []Program, after []Program) {
	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		if unit.Execute == nil || unit.Execute.Create == nil {
			continue
		}

		on = append(on, unit.Execute.Create.On...)
		after = append(after, unit.Execute.Create.After...)
	}

	return on, after
}

// StartHooks concatenates the before/on/after hooks of the start
// transition across the whole tree in traversal order.
func (r *Reader) StartHooks() (before, on, after []Program) {
	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		if unit.Execute == nil || unit.Execute.Start == nil {
			continue
		}

		before = append(before, unit.Execute.Start.Before...)
		on = append(on, unit.Execute.Start.On...)
		after = append(after, unit.Execute.Start.After...)
	}

	return before, on, after
}

// StopHooks concatenates the before/on/after hooks of the stop
// transition across the whole tree in traversal order.
func (r *Reader) StopHooks() (before, on, after []Program) {
	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		if unit.Execute == nil || unit.Execute.Stop == nil {
			continue
		}

		before = append(before, unit.Execute.Stop.Before...)
		on = append(on, unit.Execute.Stop.On...)
		after = append(after, unit.Execute.Stop.After...)
	}

	return before, on, after
}

// DestroyHooks concatenates the before/on hooks of the destroy
// transition across the whole tree in traversal order.
func (r *Reader) DestroyHooks() (before, on []Program) {
	walker := r.inorder()
	for unit, ok := walker.next(); ok; unit, ok = walker.next() {
		if unit.Execute == nil || unit.Execute.Destroy == nil {
			continue
		}

		before = append(before, unit.Execute.Destroy.Before...)
		on = append(on, unit.Execute.Destroy.On...)
	}

	return before, on
}
