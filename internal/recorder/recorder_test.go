package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/bietiekay/nhk-record/internal/schedule"
)

func TestNextRecordable(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	nowMS := now.UnixMilli()

	minute := int64(60_000)
	programmes := []schedule.Programme{
		{Title: "Ended", StartMS: nowMS - 60*minute, EndMS: nowMS - 30*minute},
		{Title: "Later", StartMS: nowMS + 120*minute, EndMS: nowMS + 150*minute},
		{Title: "Soon", StartMS: nowMS + 30*minute, EndMS: nowMS + 58*minute},
		{Title: "Short", StartMS: nowMS + 10*minute, EndMS: nowMS + 12*minute},
	}

	next := nextRecordable(programmes, now, 4*minute)
	if next == nil {
		t.Fatal("nextRecordable() = nil, want a programme")
	}
	if next.Title != "Soon" {
		t.Errorf("next.Title = %q, want %q", next.Title, "Soon")
	}
}

func TestNextRecordableOnAir(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	nowMS := now.UnixMilli()

	programmes := []schedule.Programme{
		{Title: "On Air", StartMS: nowMS - 600_000, EndMS: nowMS + 1_200_000},
	}

	next := nextRecordable(programmes, now, 240_000)
	if next == nil || next.Title != "On Air" {
		t.Fatalf("nextRecordable() = %v, want the programme still on air", next)
	}
}

func TestNextRecordableNoneEligible(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	nowMS := now.UnixMilli()

	programmes := []schedule.Programme{
		{Title: "Ended", StartMS: nowMS - 3_600_000, EndMS: nowMS - 1_800_000},
		{Title: "Short", StartMS: nowMS + 600_000, EndMS: nowMS + 720_000},
	}

	if next := nextRecordable(programmes, now, 240_000); next != nil {
		t.Errorf("nextRecordable() = %v, want nil", next)
	}
}

func TestNextRecordableEmpty(t *testing.T) {
	if next := nextRecordable(nil, time.Now(), 0); next != nil {
		t.Errorf("nextRecordable(nil) = %v, want nil", next)
	}
}

func TestSleepCtxCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleepCtx(ctx, time.Hour); err == nil {
		t.Error("sleepCtx() = nil with a cancelled context")
	}
}

func TestSleepCtxZeroDuration(t *testing.T) {
	if err := sleepCtx(context.Background(), 0); err != nil {
		t.Errorf("sleepCtx(0) = %v, want nil", err)
	}
}
