package memory

// table keeps rows by id along with their insertion order, so listings come
// back in the order records were created.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) put(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

// overlay reads through staged writes onto committed rows.
type overlay[T any] struct {
	base   *table[T]
	staged *table[T]
}

func (o overlay[T]) get(id string) (T, bool) {
	if row, ok := o.staged.get(id); ok {
		return row, true
	}
	return o.base.get(id)
}

func (o overlay[T]) put(id string, row T) {
	o.staged.put(id, row)
}

func (o overlay[T]) list(keep func(T) bool) []T {
	out := make([]T, 0, len(o.base.order)+len(o.staged.order))
	for _, id := range o.base.order {
		row, _ := o.get(id)
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	for _, id := range o.staged.order {
		if _, committed := o.base.rows[id]; committed {
			continue
		}
		row := o.staged.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func (o overlay[T]) commit() {
	for _, id := range o.staged.order {
		o.base.put(id, o.staged.rows[id])
	}
}
