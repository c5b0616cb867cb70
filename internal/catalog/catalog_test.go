// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestListExcludesShorts(t *testing.T) {
	c := New()
	for _, v := range c.List(context.Background(), "") {
		if v.Short {
			t.Errorf("List returned short %s", v.ID)
		}
	}
}

func TestListCategoryFilter(t *testing.T) {
	c := New()
	videos := c.List(context.Background(), "automotive")
	if len(videos) != 1 || videos[0].ID != "video-5" {
		t.Errorf("automotive filter = %v", videos)
	}
	if len(c.List(context.Background(), "cooking")) != 0 {
		t.Error("unknown category returned videos")
	}
}

func TestShorts(t *testing.T) {
	c := New()
	shorts := c.Shorts(context.Background())
	if len(shorts) == 0 {
		t.Fatal("no shorts in feed")
	}
	for _, v := range shorts {
		if !v.Short {
			t.Errorf("shorts feed contains non-short %s", v.ID)
		}
	}
}

func TestGet(t *testing.T) {
	c := New()
	v, err := c.Get(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Title != "Big Buck Bunny" {
		t.Errorf("Title = %q", v.Title)
	}

	if _, err := c.Get(context.Background(), "nope"); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("err = %v, want ErrVideoNotFound", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	c := New()
	v, _ := c.Get(context.Background(), "video-1")
	v.Title = "mutated"

	again, _ := c.Get(context.Background(), "video-1")
	if again.Title != "Big Buck Bunny" {
		t.Error("catalog entry mutated through Get result")
	}
}
