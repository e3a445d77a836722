package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sort"
	"strings"
)

// record is a stored entity with a per-collection identifier.
type record interface {
	recordID() int
	validate() error
}

// loadCollection reads the collection stored under key. Anything unusable
// (missing, unreadable, unparseable, or failing validation) yields a copy of
// defaults instead.
func loadCollection[T record](ctx context.Context, kv KeyValueStore, key string, defaults []T) []T {
	raw, found, err := kv.GetItem(ctx, key)
	if err != nil {
		log.Printf("WARNING: loading %s: %v", key, err)
		return slices.Clone(defaults)
	}
	if !found {
		return slices.Clone(defaults)
	}

	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		log.Printf("WARNING: parsing %s, using defaults: %v", key, err)
		return slices.Clone(defaults)
	}

	seen := make(map[int]bool, len(records))
	for _, r := range records {
		if err := r.validate(); err != nil {
			log.Printf("WARNING: invalid record in %s, using defaults: %v", key, err)
			return slices.Clone(defaults)
		}
		if seen[r.recordID()] {
			log.Printf("WARNING: duplicate id %d in %s, using defaults", r.recordID(), key)
			return slices.Clone(defaults)
		}
		seen[r.recordID()] = true
	}

	if records == nil {
		records = []T{}
	}
	return records
}

// saveCollection overwrites the collection stored under key. Failures are
// logged and otherwise ignored.
func saveCollection[T record](ctx context.Context, kv KeyValueStore, key string, records []T) {
	saveCollections(ctx, kv, map[string]any{key: nonNil(records)})
}

// saveCollections writes several collections in a single commit so related
// aggregates land together or not at all.
func saveCollections(ctx context.Context, kv KeyValueStore, collections map[string]any) {
	items := make(map[string]string, len(collections))
	keys := make([]string, 0, len(collections))
	for key, records := range collections {
		data, err := json.Marshal(records)
		if err != nil {
			log.Printf("WARNING: encoding %s: %v", key, err)
			return
		}
		items[key] = string(data)
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := kv.SetItems(context.WithoutCancel(ctx), items); err != nil {
		log.Printf("WARNING: saving %s: %v", strings.Join(keys, ", "), err)
	}
}

// nextID returns max(ids)+1, or 1 for an empty collection.
func nextID[T record](records []T) int {
	highest := 0
	for _, r := range records {
		if r.recordID() > highest {
			highest = r.recordID()
		}
	}
	return highest + 1
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (u User) recordID() int    { return u.ID }
func (p Post) recordID() int    { return p.ID }
func (c Comment) recordID() int { return c.ID }

func (u User) validate() error {
	switch {
	case u.ID < 1:
		return fmt.Errorf("user id %d: %w", u.ID, ErrInvalidInput)
	case strings.TrimSpace(u.Name) == "":
		return fmt.Errorf("user %d: name required: %w", u.ID, ErrInvalidInput)
	case strings.TrimSpace(u.Email) == "":
		return fmt.Errorf("user %d: email required: %w", u.ID, ErrInvalidInput)
	case u.Password == "":
		return fmt.Errorf("user %d: password required: %w", u.ID, ErrInvalidInput)
	}
	return nil
}

func (p Post) validate() error {
	switch {
	case p.ID < 1:
		return fmt.Errorf("post id %d: %w", p.ID, ErrInvalidInput)
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("post %d: title required: %w", p.ID, ErrInvalidInput)
	case strings.TrimSpace(p.Content) == "":
		return fmt.Errorf("post %d: content required: %w", p.ID, ErrInvalidInput)
	case p.Author.ID < 1:
		return fmt.Errorf("post %d: author required: %w", p.ID, ErrInvalidInput)
	case p.CreatedAt.IsZero():
		return fmt.Errorf("post %d: creation time required: %w", p.ID, ErrInvalidInput)
	case p.CommentsCount < 0:
		return fmt.Errorf("post %d: negative comment count: %w", p.ID, ErrInvalidInput)
	}
	return nil
}

func (c Comment) validate() error {
	switch {
	case c.ID < 1:
		return fmt.Errorf("comment id %d: %w", c.ID, ErrInvalidInput)
	case c.PostID < 1:
		return fmt.Errorf("comment %d: post required: %w", c.ID, ErrInvalidInput)
	case strings.TrimSpace(c.Content) == "":
		return fmt.Errorf("comment %d: content required: %w", c.ID, ErrInvalidInput)
	case c.Author.ID < 1:
		return fmt.Errorf("comment %d: author required: %w", c.ID, ErrInvalidInput)
	case c.CreatedAt.IsZero():
		return fmt.Errorf("comment %d: creation time required: %w", c.ID, ErrInvalidInput)
	}
	return nil
}
