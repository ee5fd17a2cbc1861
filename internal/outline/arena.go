package outline

import (
	"slices"
	"strings"

	"github.com/starford/arbor/internal/models"
)

// arena is the in-memory projection of the store: notes by id plus the
// ordered child lists of every parent whose children are materialized.
//
// A note that is present but has no entry in children is either collapsed
// and unloaded (counts holds its child count) or cut off by the depth limit
// (hidden holds the size of its subtree).
type arena struct {
	notes    map[string]*models.Note
	children map[string][]string
	counts   map[string]int
	hidden   map[string]int
}

func newArena() *arena {
	return &arena{
		notes:    make(map[string]*models.Note),
		children: make(map[string][]string),
		counts:   make(map[string]int),
		hidden:   make(map[string]int),
	}
}

func (a *arena) childCount(id string) int {
	if kids, ok := a.children[id]; ok {
		return len(kids)
	}
	if h, ok := a.hidden[id]; ok {
		return h
	}
	return a.counts[id]
}

// merge copies everything loaded into other over a.
func (a *arena) merge(other *arena) {
	for id, n := range other.notes {
		a.notes[id] = n
	}
	for id, kids := range other.children {
		a.children[id] = kids
		delete(a.counts, id)
		delete(a.hidden, id)
	}
	for id, c := range other.counts {
		a.counts[id] = c
	}
	for id, h := range other.hidden {
		a.hidden[id] = h
		delete(a.children, id)
	}
}

func (a *arena) renumber(parentID string) {
	for i, id := range a.children[parentID] {
		if n := a.notes[id]; n != nil {
			n.Position = i
		}
	}
}

// insert places n among its parent's children. When the parent's children
// are not materialized only the summary count changes.
func (a *arena) insert(n *models.Note) {
	kids, ok := a.children[n.ParentID]
	if !ok {
		if _, hid := a.hidden[n.ParentID]; hid {
			a.hidden[n.ParentID]++
		} else if _, known := a.notes[n.ParentID]; known {
			a.counts[n.ParentID]++
		}
		return
	}
	pos := n.Position
	if pos < 0 || pos > len(kids) {
		pos = len(kids)
	}
	a.notes[n.ID] = n
	if _, ok := a.children[n.ID]; !ok {
		if _, ok := a.counts[n.ID]; !ok {
			a.children[n.ID] = []string{}
		}
	}
	a.children[n.ParentID] = slices.Insert(kids, pos, n.ID)
	a.renumber(n.ParentID)
}

// detach removes id from its parent's child list (or summary count) without
// touching the subtree itself.
func (a *arena) detach(id, parentID string) {
	if kids, ok := a.children[parentID]; ok {
		if i := slices.Index(kids, id); i >= 0 {
			a.children[parentID] = slices.Delete(kids, i, i+1)
			a.renumber(parentID)
		}
		return
	}
	if c, ok := a.counts[parentID]; ok && c > 0 {
		a.counts[parentID] = c - 1
	}
}

// drop forgets id and every materialized descendant.
func (a *arena) drop(id string) {
	for _, kid := range a.children[id] {
		a.drop(kid)
	}
	delete(a.notes, id)
	delete(a.children, id)
	delete(a.counts, id)
	delete(a.hidden, id)
}

// remove deletes the subtree rooted at n.
func (a *arena) remove(n *models.Note) {
	a.detach(n.ID, n.ParentID)
	a.drop(n.ID)
}

// relocate mirrors a store move: n, whose ParentID already names the new
// parent, leaves oldParent and is inserted at pos among the new siblings.
// The subtree is forgotten when the new parent's children are not
// materialized.
func (a *arena) relocate(n *models.Note, oldParent string, pos int) {
	a.detach(n.ID, oldParent)

	parent, ok := a.notes[n.ParentID]
	if _, materialized := a.children[n.ParentID]; !ok || !materialized {
		a.drop(n.ID)
		if ok {
			if _, hid := a.hidden[parent.ID]; !hid {
				a.counts[parent.ID]++
			}
		}
		return
	}

	oldPath := n.Path
	n.Path = parent.Path + "." + n.ID
	delta := parent.Depth + 1 - n.Depth
	n.Depth = parent.Depth + 1
	n.Position = pos
	a.notes[n.ID] = n
	if oldPath != n.Path {
		a.rewritePaths(oldPath, n.Path, delta)
	}

	kids := a.children[n.ParentID]
	if pos < 0 || pos > len(kids) {
		pos = len(kids)
	}
	a.children[n.ParentID] = slices.Insert(kids, pos, n.ID)
	a.renumber(n.ParentID)
}

func (a *arena) rewritePaths(oldPrefix, newPrefix string, depthDelta int) {
	for _, n := range a.notes {
		if rest, ok := strings.CutPrefix(n.Path, oldPrefix+"."); ok {
			n.Path = newPrefix + "." + rest
			n.Depth += depthDelta
		}
	}
}

// covers reports whether n is, or is an ancestor of, a note at any of paths.
func covers(n *models.Note, paths []string) bool {
	for _, p := range paths {
		if n.Path == p || strings.HasPrefix(p, n.Path+".") {
			return true
		}
	}
	return false
}
