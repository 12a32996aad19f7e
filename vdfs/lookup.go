// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdfs

import "strings"

// FindChild returns the direct child of e with the given name
// (case-insensitive), or nil if none exists. e must be a directory.
func (e *Entry) FindChild(name string) *Entry {
	return findChild(e.Children, name)
}

func findChild(children []*Entry, name string) *Entry {
	for _, c := range children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// findEntry performs a depth-first search for name among children and
// their descendants, descending into every directory in turn: the
// whole tree is searched, not only the current directory.
func findEntry(children []*Entry, name string) *Entry {
	if e := findChild(children, name); e != nil {
		return e
	}
	for _, c := range children {
		if c.IsDirectory() {
			if e := findEntry(c.Children, name); e != nil {
				return e
			}
		}
	}
	return nil
}

// FindEntry searches the whole tree rooted at f for an entry (file or
// directory) with the given name, case-insensitively.
func (f *File) FindEntry(name string) *Entry {
	return findEntry(f.Children, name)
}

// FindEntry searches e's subtree for name, case-insensitively.
func (e *Entry) FindEntry(name string) *Entry {
	return findEntry(e.Children, name)
}

// ResolvePath walks path segment by segment from the root, requiring
// each segment to name a direct child of the previous one (unlike
// FindEntry, this never descends past a non-matching sibling).
func (f *File) ResolvePath(path string) *Entry {
	return resolvePath(f.Children, path)
}

// ResolvePath walks path segment by segment starting from e's children.
func (e *Entry) ResolvePath(path string) *Entry {
	return resolvePath(e.Children, path)
}

func resolvePath(root []*Entry, path string) *Entry {
	path = strings.Trim(path, "/\\")
	if path == "" {
		return nil
	}
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })

	children := root
	var current *Entry
	for i, seg := range segments {
		current = findChild(children, seg)
		if current == nil {
			return nil
		}
		if i < len(segments)-1 {
			if !current.IsDirectory() {
				return nil
			}
			children = current.Children
		}
	}
	return current
}

// Merge unions other's tree into f's, recursively. Where both trees
// contain a directory with the same name, their children are merged in
// turn. Where both contain a file with the same name, the existing
// entry is kept unless overrideExisting is set, in which case other's
// entry replaces it.
func (f *File) Merge(other *File, overrideExisting bool) {
	f.Children = mergeChildren(f.Children, other.Children, overrideExisting)
}

func mergeChildren(dst, src []*Entry, overrideExisting bool) []*Entry {
	for _, s := range src {
		if existing := findChild(dst, s.Name); existing != nil {
			switch {
			case existing.IsDirectory() && s.IsDirectory():
				existing.Children = mergeChildren(existing.Children, s.Children, overrideExisting)
			case overrideExisting:
				*existing = *s
			}
			continue
		}
		dst = append(dst, s)
	}
	sortChildren(dst)
	return dst
}
