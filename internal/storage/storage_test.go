package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mindwell/internal/schedule"
	logx "mindwell/pkg/logx"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustCreateUser(t *testing.T, db *DB, username string) int64 {
	t.Helper()
	id, err := db.CreateUser(context.Background(), User{Username: username, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
}

func TestUserRoundtrip(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.CreateUser(ctx, User{
		Username:     "alice",
		PasswordHash: "hash",
		Email:        "alice@example.com",
		FirstName:    "Alice",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := db.UserByID(ctx, id)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if u.Username != "alice" || u.Email != "alice@example.com" || u.FirstName != "Alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.LastName != "" {
		t.Fatalf("LastName should be empty, got %q", u.LastName)
	}
	if !u.LastLogin.IsZero() {
		t.Fatalf("LastLogin should be zero, got %v", u.LastLogin)
	}

	byName, err := db.UserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("UserByUsername: %v", err)
	}
	if byName.ID != id {
		t.Fatalf("ID mismatch: %d vs %d", byName.ID, id)
	}

	if _, err := db.UserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user should be ErrNotFound, got %v", err)
	}

	if _, err := db.CreateUser(ctx, User{Username: "alice", PasswordHash: "y"}); err == nil {
		t.Fatal("duplicate username should fail")
	}
}

func TestTouchLastLogin(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	id := mustCreateUser(t, db, "bob")
	at := time.Date(2024, time.May, 2, 9, 30, 0, 0, time.UTC)
	if err := db.TouchLastLogin(ctx, id, at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	u, err := db.UserByID(ctx, id)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if !u.LastLogin.Equal(at) {
		t.Fatalf("LastLogin = %v, want %v", u.LastLogin, at)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, db, "carol")

	now := time.Now().UTC()
	sess := Session{Token: "tok-1", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := db.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := db.SessionByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("SessionByToken: %v", err)
	}
	if got.UserID != userID || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := db.DeleteSession(ctx, "tok-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := db.SessionByToken(ctx, "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted session should be ErrNotFound, got %v", err)
	}
}

func TestPruneExpiredSessions(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, db, "dave")

	now := time.Now().UTC()
	stale := Session{Token: "stale", UserID: userID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	fresh := Session{Token: "fresh", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	for _, s := range []Session{stale, fresh} {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession %s: %v", s.Token, err)
		}
	}

	n, err := db.PruneExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("PruneExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d sessions, want 1", n)
	}
	if _, err := db.SessionByToken(ctx, "fresh"); err != nil {
		t.Fatalf("fresh session should survive: %v", err)
	}
}

func TestReminderRoundtrip(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, db, "erin")

	days := schedule.DaySet(0).With(time.Monday).With(time.Friday)
	id, err := db.CreateReminder(ctx, Reminder{
		UserID: userID,
		Title:  "Morning check-in",
		Kind:   "mood",
		Hour:   8,
		Minute: 30,
		Days:   days,
		Active: true,
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	r, err := db.ReminderByID(ctx, id)
	if err != nil {
		t.Fatalf("ReminderByID: %v", err)
	}
	if r.Title != "Morning check-in" || r.Hour != 8 || r.Minute != 30 || r.Days != days || !r.Active {
		t.Fatalf("unexpected reminder: %+v", r)
	}
	if r.Message != "" {
		t.Fatalf("Message should be empty, got %q", r.Message)
	}
	if _, err := r.Rule(); err != nil {
		t.Fatalf("Rule: %v", err)
	}

	r.Title = "Evening check-in"
	r.Active = false
	if err := db.UpdateReminder(ctx, r); err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	got, err := db.ReminderByID(ctx, id)
	if err != nil {
		t.Fatalf("ReminderByID after update: %v", err)
	}
	if got.Title != "Evening check-in" || got.Active {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := db.DeleteReminder(ctx, id, userID); err != nil {
		t.Fatalf("DeleteReminder: %v", err)
	}
	if _, err := db.ReminderByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted reminder should be ErrNotFound, got %v", err)
	}
	if err := db.DeleteReminder(ctx, id, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestActiveReminderQueries(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	u1 := mustCreateUser(t, db, "frank")
	u2 := mustCreateUser(t, db, "grace")

	mk := func(userID int64, title string, active bool) {
		t.Helper()
		_, err := db.CreateReminder(ctx, Reminder{
			UserID: userID, Title: title, Kind: "custom", Hour: 9, Active: active,
		})
		if err != nil {
			t.Fatalf("CreateReminder %s: %v", title, err)
		}
	}
	mk(u1, "a", true)
	mk(u1, "b", false)
	mk(u2, "c", true)

	active, err := db.ActiveRemindersForUser(ctx, u1)
	if err != nil {
		t.Fatalf("ActiveRemindersForUser: %v", err)
	}
	if len(active) != 1 || active[0].Title != "a" {
		t.Fatalf("active reminders = %+v", active)
	}

	all, err := db.RemindersForUser(ctx, u1)
	if err != nil {
		t.Fatalf("RemindersForUser: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	ids, err := db.ActiveReminderUserIDs(ctx)
	if err != nil {
		t.Fatalf("ActiveReminderUserIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != u1 || ids[1] != u2 {
		t.Fatalf("user ids = %v", ids)
	}
}

func TestGoalProgressCompletes(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, db, "heidi")

	id, err := db.CreateGoal(ctx, Goal{
		UserID: userID, Title: "Meditate", Category: "mindfulness", Frequency: "daily", Target: 3,
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	if err := db.UpdateGoalProgress(ctx, id, userID, 2); err != nil {
		t.Fatalf("UpdateGoalProgress: %v", err)
	}
	g, err := db.GoalByID(ctx, id, userID)
	if err != nil {
		t.Fatalf("GoalByID: %v", err)
	}
	if g.Progress != 2 || g.Completed {
		t.Fatalf("goal should be incomplete: %+v", g)
	}

	if err := db.UpdateGoalProgress(ctx, id, userID, 3); err != nil {
		t.Fatalf("UpdateGoalProgress: %v", err)
	}
	g, err = db.GoalByID(ctx, id, userID)
	if err != nil {
		t.Fatalf("GoalByID: %v", err)
	}
	if !g.Completed {
		t.Fatalf("goal should be complete: %+v", g)
	}
}

func TestMoodAndJournalQueries(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, db, "ivan")

	for _, mood := range []string{"calm", "anxious", "happy"} {
		if _, err := db.CreateMoodEntry(ctx, MoodEntry{UserID: userID, Mood: mood, Intensity: 5}); err != nil {
			t.Fatalf("CreateMoodEntry %s: %v", mood, err)
		}
	}
	moods, err := db.MoodEntriesForUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("MoodEntriesForUser: %v", err)
	}
	if len(moods) != 2 || moods[0].Mood != "happy" {
		t.Fatalf("moods = %+v", moods)
	}

	jid, err := db.CreateJournalEntry(ctx, JournalEntry{UserID: userID, Title: "Day one", Content: "...", Sentiment: "neutral"})
	if err != nil {
		t.Fatalf("CreateJournalEntry: %v", err)
	}
	j, err := db.JournalEntryByID(ctx, jid, userID)
	if err != nil {
		t.Fatalf("JournalEntryByID: %v", err)
	}
	if j.Sentiment != "neutral" {
		t.Fatalf("Sentiment = %q", j.Sentiment)
	}
	j.Content = "updated"
	j.Sentiment = "positive"
	if err := db.UpdateJournalEntry(ctx, j); err != nil {
		t.Fatalf("UpdateJournalEntry: %v", err)
	}
	j, err = db.JournalEntryByID(ctx, jid, userID)
	if err != nil {
		t.Fatalf("JournalEntryByID after update: %v", err)
	}
	if j.Content != "updated" || j.Sentiment != "positive" {
		t.Fatalf("after update: content %q sentiment %q", j.Content, j.Sentiment)
	}

	if _, err := db.JournalEntryByID(ctx, jid, userID+1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user's lookup should be ErrNotFound, got %v", err)
	}
}

func TestMoodCountsSince(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, db, "nora")

	now := time.Now().UTC()
	entries := []MoodEntry{
		{UserID: userID, Mood: "calm", Intensity: 6, CreatedAt: now.AddDate(0, 0, -1)},
		{UserID: userID, Mood: "calm", Intensity: 7, CreatedAt: now.AddDate(0, 0, -2)},
		{UserID: userID, Mood: "anxious", Intensity: 4, CreatedAt: now.AddDate(0, 0, -3)},
		{UserID: userID, Mood: "happy", Intensity: 9, CreatedAt: now.AddDate(0, 0, -60)},
	}
	for _, m := range entries {
		if _, err := db.CreateMoodEntry(ctx, m); err != nil {
			t.Fatalf("CreateMoodEntry: %v", err)
		}
	}

	counts, err := db.MoodCountsSince(ctx, userID, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("MoodCountsSince: %v", err)
	}
	if len(counts) != 2 || counts["calm"] != 2 || counts["anxious"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if _, ok := counts["happy"]; ok {
		t.Fatal("entry outside the window must not be counted")
	}
}

func TestThoughtRecordRoundtrip(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, db, "judy")

	id, err := db.CreateThoughtRecord(ctx, ThoughtRecord{
		UserID:           userID,
		Situation:        "Presentation tomorrow",
		AutomaticThought: "I will fail",
		Emotions:         "anxiety",
		EmotionIntensity: 8,
	})
	if err != nil {
		t.Fatalf("CreateThoughtRecord: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	recs, err := db.ThoughtRecordsForUser(ctx, userID, 0)
	if err != nil {
		t.Fatalf("ThoughtRecordsForUser: %v", err)
	}
	if len(recs) != 1 || recs[0].Situation != "Presentation tomorrow" {
		t.Fatalf("records = %+v", recs)
	}
	if recs[0].EvidenceFor != "" || recs[0].AlternativeThought != "" {
		t.Fatalf("optional fields should be empty: %+v", recs[0])
	}
}

func TestCheckpoint(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	if err := db.Checkpoint(context.Background()); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
}
