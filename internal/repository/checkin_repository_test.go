package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/lumenbooth/firefly-booth/internal/model"
)

func TestCheckInThenReleaseWalksStateMachine(t *testing.T) {
	db := openTempDB(t)
	notes := &countingNotifier{}
	sections := NewSectionRepo(db, nil)
	moments := NewMomentRepo(db)
	checkins := NewCheckinRepo(db, notes)
	ctx := context.Background()

	sec := seedSection(t, sections, "Garden", 1)
	alice := seedMoment(t, moments, "Alice")

	state, err := checkins.State(ctx, alice.ID, sec.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != model.StateNotCheckedIn {
		t.Fatalf("state = %s, want %s", state, model.StateNotCheckedIn)
	}

	rec, err := checkins.CheckIn(ctx, alice.ID, sec.ID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if rec.State() != model.StateCheckedIn {
		t.Fatalf("record state = %s, want %s", rec.State(), model.StateCheckedIn)
	}

	rec, transitioned, err := checkins.Release(ctx, alice.ID, sec.ID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !transitioned || rec.State() != model.StateReleased {
		t.Fatalf("release transitioned=%v state=%s", transitioned, rec.State())
	}
	if notes.count() != 2 {
		t.Fatalf("notifications = %d, want 2", notes.count())
	}
}

func TestReleaseWithoutCheckInIsRejectedWithoutNotify(t *testing.T) {
	db := openTempDB(t)
	notes := &countingNotifier{}
	sec := seedSection(t, NewSectionRepo(db, nil), "Garden", 1)
	bob := seedMoment(t, NewMomentRepo(db), "Bob")
	checkins := NewCheckinRepo(db, notes)

	_, _, err := checkins.Release(context.Background(), bob.ID, sec.ID)
	if !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("err = %v, want ErrNotCheckedIn", err)
	}
	if notes.count() != 0 {
		t.Fatalf("notifications = %d, want 0", notes.count())
	}
	state, err := checkins.State(context.Background(), bob.ID, sec.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != model.StateNotCheckedIn {
		t.Fatalf("state = %s, want %s", state, model.StateNotCheckedIn)
	}
}

func TestRepeatReleaseIsNoOpButStillNotifies(t *testing.T) {
	db := openTempDB(t)
	notes := &countingNotifier{}
	sec := seedSection(t, NewSectionRepo(db, nil), "Garden", 1)
	alice := seedMoment(t, NewMomentRepo(db), "Alice")
	checkins := NewCheckinRepo(db, notes)
	ctx := context.Background()

	if _, err := checkins.CheckIn(ctx, alice.ID, sec.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, _, err := checkins.Release(ctx, alice.ID, sec.ID); err != nil {
		t.Fatalf("first release: %v", err)
	}
	_, transitioned, err := checkins.Release(ctx, alice.ID, sec.ID)
	if err != nil {
		t.Fatalf("second release: %v", err)
	}
	if transitioned {
		t.Fatal("second release reported a transition")
	}
	if notes.count() != 3 {
		t.Fatalf("notifications = %d, want 3", notes.count())
	}
}

func TestReCheckInKeepsReleasedState(t *testing.T) {
	db := openTempDB(t)
	sec := seedSection(t, NewSectionRepo(db, nil), "Garden", 1)
	alice := seedMoment(t, NewMomentRepo(db), "Alice")
	checkins := NewCheckinRepo(db, nil)
	ctx := context.Background()

	if _, err := checkins.CheckIn(ctx, alice.ID, sec.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, _, err := checkins.Release(ctx, alice.ID, sec.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	rec, err := checkins.CheckIn(ctx, alice.ID, sec.ID)
	if err != nil {
		t.Fatalf("re-check in: %v", err)
	}
	if rec.State() != model.StateReleased {
		t.Fatalf("state after re-check-in = %s, want %s", rec.State(), model.StateReleased)
	}
}

func TestCheckInRejectsUnknownPair(t *testing.T) {
	db := openTempDB(t)
	notes := &countingNotifier{}
	sec := seedSection(t, NewSectionRepo(db, nil), "Garden", 1)
	alice := seedMoment(t, NewMomentRepo(db), "Alice")
	checkins := NewCheckinRepo(db, notes)
	ctx := context.Background()

	if _, err := checkins.CheckIn(ctx, alice.ID+100, sec.ID); !errors.Is(err, ErrMomentNotFound) {
		t.Fatalf("unknown moment err = %v", err)
	}
	if _, err := checkins.CheckIn(ctx, alice.ID, sec.ID+100); !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("unknown section err = %v", err)
	}
	if _, _, err := checkins.Release(ctx, alice.ID+100, sec.ID); !errors.Is(err, ErrMomentNotFound) {
		t.Fatalf("release unknown moment err = %v", err)
	}
	if notes.count() != 0 {
		t.Fatalf("notifications = %d, want 0", notes.count())
	}
}

func TestReleasedParticipantsOnlyListsReleasedInSection(t *testing.T) {
	db := openTempDB(t)
	sections := NewSectionRepo(db, nil)
	moments := NewMomentRepo(db)
	checkins := NewCheckinRepo(db, nil)
	reader := NewLedgerReader(db)
	ctx := context.Background()

	garden := seedSection(t, sections, "Garden", 1)
	hall := seedSection(t, sections, "Hall", 2)
	alice := seedMoment(t, moments, "Alice")
	bob := seedMoment(t, moments, "Bob")
	cara := seedMoment(t, moments, "Cara")

	for _, m := range []model.Moment{alice, bob, cara} {
		if _, err := checkins.CheckIn(ctx, m.ID, garden.ID); err != nil {
			t.Fatalf("check in %s: %v", m.DisplayName, err)
		}
	}
	if _, err := checkins.CheckIn(ctx, alice.ID, hall.ID); err != nil {
		t.Fatalf("check in hall: %v", err)
	}
	for _, m := range []model.Moment{cara, alice} {
		if _, _, err := checkins.Release(ctx, m.ID, garden.ID); err != nil {
			t.Fatalf("release %s: %v", m.DisplayName, err)
		}
	}

	got, err := reader.ReleasedParticipants(ctx, garden.ID)
	if err != nil {
		t.Fatalf("released participants: %v", err)
	}
	want := []model.Participant{{MomentID: alice.ID, Name: "Alice"}, {MomentID: cara.ID, Name: "Cara"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	hallReleased, err := reader.ReleasedParticipants(ctx, hall.ID)
	if err != nil {
		t.Fatalf("released participants hall: %v", err)
	}
	if len(hallReleased) != 0 {
		t.Fatalf("hall released = %v, want none", hallReleased)
	}
}
