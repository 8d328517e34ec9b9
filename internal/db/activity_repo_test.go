package db

import (
	"context"
	"fmt"
	"testing"
)

func TestActivityRepoCreateAndList(t *testing.T) {
	database := openTestDB(t)
	repo := NewActivityRepo(database.SQL())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		record := &ActivityRecord{
			UserToken:  "user-1",
			Capability: "CONTENT_generate_article",
			Args:       fmt.Sprintf(`{"topic":"t%d"}`, i),
			Success:    i != 1,
			SiteURL:    "mysite.com",
		}
		if i == 1 {
			record.Error = "backend unavailable"
		}
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("create record %d: %v", i, err)
		}
	}
	if err := repo.Create(ctx, &ActivityRecord{UserToken: "user-2", Capability: "SITE_get_status", Success: true}); err != nil {
		t.Fatalf("create other user record: %v", err)
	}

	recent, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 4 {
		t.Fatalf("recent len=%d want 4", len(recent))
	}
	if recent[0].Capability != "SITE_get_status" {
		t.Fatalf("recent not newest-first: %s", recent[0].Capability)
	}

	mine, err := repo.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("user records len=%d want 3", len(mine))
	}
	failures := 0
	for _, record := range mine {
		if !record.Success {
			failures++
			if record.Error != "backend unavailable" {
				t.Fatalf("failure error = %q", record.Error)
			}
		}
	}
	if failures != 1 {
		t.Fatalf("failures = %d want 1", failures)
	}
}

func TestActivityRepoRequiresFields(t *testing.T) {
	database := openTestDB(t)
	repo := NewActivityRepo(database.SQL())

	if err := repo.Create(context.Background(), &ActivityRecord{Capability: "X"}); err == nil {
		t.Fatalf("missing user token accepted")
	}
	if err := repo.Create(context.Background(), &ActivityRecord{UserToken: "u"}); err == nil {
		t.Fatalf("missing capability accepted")
	}
}
