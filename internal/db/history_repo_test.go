package db

import (
	"context"
	"fmt"
	"testing"
)

func TestHistoryRepoRoundTrip(t *testing.T) {
	database := openTestDB(t)
	repo := NewHistoryRepo(database.SQL())
	ctx := context.Background()

	roles := []string{"user", "assistant", "user", "assistant"}
	for i, role := range roles {
		msg := &ChatMessage{UserToken: "user-1", Role: role, Content: fmt.Sprintf("m%d", i)}
		if err := repo.Create(ctx, msg); err != nil {
			t.Fatalf("create message %d: %v", i, err)
		}
	}

	items, err := repo.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("len=%d want 4", len(items))
	}
	if items[0].Content != "m0" || items[3].Content != "m3" {
		t.Fatalf("history not oldest-first: %s..%s", items[0].Content, items[3].Content)
	}
}

func TestHistoryRepoTrimKeepsNewest(t *testing.T) {
	database := openTestDB(t)
	repo := NewHistoryRepo(database.SQL())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if err := repo.Create(ctx, &ChatMessage{UserToken: "user-1", Role: "user", Content: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("create message %d: %v", i, err)
		}
	}
	if err := repo.TrimUser(ctx, "user-1", 2); err != nil {
		t.Fatalf("trim: %v", err)
	}

	items, err := repo.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len=%d want 2", len(items))
	}
	if items[0].Content != "m4" || items[1].Content != "m5" {
		t.Fatalf("trim kept wrong messages: %s, %s", items[0].Content, items[1].Content)
	}
}
