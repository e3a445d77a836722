package main

import (
	"context"
	"reflect"
	"testing"
	"time"
)

var testDefaults = []Post{
	{ID: 1, Title: "Default", Content: "Default content", Author: Author{ID: 1, Name: "Demo User"},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
}

func TestLoadCollection_Missing(t *testing.T) {
	kv := setupTestKV(t)

	got := loadCollection(context.Background(), kv, postsKey, testDefaults)
	if !reflect.DeepEqual(got, testDefaults) {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestLoadCollection_FallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"invalid json", `[{"id":`},
		{"wrong shape", `{"id": 1}`},
		{"missing title", `[{"id":1,"content":"x","author":{"id":1,"name":"a"},"createdAt":"2024-01-01T00:00:00Z"}]`},
		{"zero id", `[{"id":0,"title":"t","content":"x","author":{"id":1,"name":"a"},"createdAt":"2024-01-01T00:00:00Z"}]`},
		{"duplicate id", `[
			{"id":1,"title":"t","content":"x","author":{"id":1,"name":"a"},"createdAt":"2024-01-01T00:00:00Z"},
			{"id":1,"title":"u","content":"y","author":{"id":1,"name":"a"},"createdAt":"2024-01-01T00:00:00Z"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := setupTestKV(t)
			kv.SetItem(context.Background(), postsKey, tt.stored)

			got := loadCollection(context.Background(), kv, postsKey, testDefaults)
			if !reflect.DeepEqual(got, testDefaults) {
				t.Errorf("expected defaults, got %+v", got)
			}
		})
	}
}

func TestLoadCollection_EmptyStaysEmpty(t *testing.T) {
	kv := setupTestKV(t)
	kv.SetItem(context.Background(), postsKey, `[]`)

	got := loadCollection(context.Background(), kv, postsKey, testDefaults)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty collection, got %+v", got)
	}
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	kv := setupTestKV(t)
	ctx := context.Background()

	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := []Post{
		{ID: 3, Title: "Third", Content: "Third content", Author: Author{ID: 2, Name: "Ann"},
			CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: &edited, CommentsCount: 4},
		{ID: 1, Title: "First", Content: "First content", Author: Author{ID: 1, Name: "Bob"},
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	saveCollection(ctx, kv, postsKey, posts)
	got := loadCollection(ctx, kv, postsKey, testDefaults)

	if !reflect.DeepEqual(got, posts) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, posts)
	}
}

func TestSaveCollection_Nil(t *testing.T) {
	kv := setupTestKV(t)
	ctx := context.Background()

	saveCollection[Comment](ctx, kv, commentsKey, nil)

	raw, _, _ := kv.GetItem(ctx, commentsKey)
	if raw != "[]" {
		t.Errorf("expected nil collection stored as [], got %q", raw)
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name  string
		users []User
		want  int
	}{
		{"empty", nil, 1},
		{"sequential", []User{{ID: 1}, {ID: 2}}, 3},
		{"gaps", []User{{ID: 7}, {ID: 3}}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextID(tt.users); got != tt.want {
				t.Errorf("nextID() = %d, want %d", got, tt.want)
			}
		})
	}
}
