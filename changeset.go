package sedes

import "fmt"

type changesetState int32

const (
	csInitialized changesetState = iota
	csOpen
	csClosed
)

// Changeset is a short-lived staging area for producing an edited copy
// of one record. It moves through INITIALIZED, OPEN and CLOSED exactly
// once, in that order; reads and writes are only allowed while OPEN.
// A changeset is single-owner: it has no internal synchronization and
// must not be shared between goroutines.
type Changeset struct {
	original *Record
	diff     map[string]any
	state    changesetState
}

// BuildChangeset stages an edit against r. The overrides, if any, are
// pre-staged field replacements; unknown names are rejected.
func (r *Record) BuildChangeset(overrides map[string]any) (*Changeset, error) {
	diff := make(map[string]any, len(overrides))
	for k, v := range overrides {
		if r.schema.fields.Find(k) < 0 {
			return nil, fmt.Errorf("sedes: record %s has no field %s", r.schema.name, k)
		}
		diff[k] = v
	}
	return &Changeset{original: r, diff: diff}, nil
}

// Open activates the changeset. Only an INITIALIZED changeset can be
// opened; the transition is never reversed.
func (cs *Changeset) Open() error {
	if cs.state != csInitialized {
		return fmt.Errorf("%w: cannot open a changeset that is not in the INITIALIZED state", ErrChangeset)
	}
	cs.state = csOpen
	return nil
}

// Get returns the staged value for the named field, falling through to
// the original record when nothing is staged.
func (cs *Changeset) Get(name string) (any, error) {
	if cs.state != csOpen {
		return nil, fmt.Errorf("%w: field access requires the OPEN state", ErrChangeset)
	}
	if v, ok := cs.diff[name]; ok {
		return v, nil
	}
	return cs.original.Get(name)
}

// Set stages a replacement value for the named field.
func (cs *Changeset) Set(name string, v any) error {
	if cs.state != csOpen {
		return fmt.Errorf("%w: field access requires the OPEN state", ErrChangeset)
	}
	if cs.original.schema.fields.Find(name) < 0 {
		return fmt.Errorf("sedes: record %s has no field %s", cs.original.schema.name, name)
	}
	cs.diff[name] = v
	return nil
}

// Commit builds a new record taking, per field, the staged value if
// present and the original's value otherwise, then closes the
// changeset. The original record is never touched.
func (cs *Changeset) Commit() (*Record, error) {
	if cs.state != csOpen {
		return nil, fmt.Errorf("%w: cannot commit a changeset that is not in the OPEN state", ErrChangeset)
	}
	s := cs.original.schema
	named := make(map[string]any, len(s.fields))
	for i, f := range s.fields {
		if v, ok := cs.diff[f.Name]; ok {
			named[f.Name] = v
		} else {
			named[f.Name] = cs.original.values[i]
		}
	}
	r, err := s.newRecord(nil, named, cs.original.aux)
	if err != nil {
		return nil, err
	}
	cs.state = csClosed
	return r, nil
}

// Close discards the staged edits without committing.
func (cs *Changeset) Close() error {
	if cs.state != csOpen {
		return fmt.Errorf("%w: cannot close a changeset that is not in the OPEN state", ErrChangeset)
	}
	cs.state = csClosed
	return nil
}

// Apply runs fn inside an open changeset and commits on success. On an
// fn error, or a panic inside fn, the changeset is closed with the
// edits discarded, so it never dangles in the OPEN state.
func (r *Record) Apply(fn func(cs *Changeset) error) (*Record, error) {
	cs, err := r.BuildChangeset(nil)
	if err != nil {
		return nil, err
	}
	if err := cs.Open(); err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed && cs.state == csOpen {
			cs.Close()
		}
	}()
	if err := fn(cs); err != nil {
		return nil, err
	}
	out, err := cs.Commit()
	if err != nil {
		return nil, err
	}
	committed = true
	return out, nil
}
