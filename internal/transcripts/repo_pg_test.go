package transcripts

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	msg := Message{
		ID:        "msg-1",
		UserID:    "user-1",
		MappingID: "map-1",
		Text:      "Summarize the key points",
		Sender:    SenderUser,
		SentAt:    now,
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(msg.ID, msg.UserID, msg.MappingID, msg.Text, "user", msg.SentAt, msg.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), msg); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByMappingAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "mapping_id", "message_text", "sender", "sent_at", "created_at",
	}).
		AddRow("msg-1", "user-1", "map-1", "question", "user", now.Add(-time.Minute), now.Add(-time.Minute)).
		AddRow("msg-2", "user-1", "map-1", "answer", "bot", now, now)

	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("user-1", "map-1").
		WillReturnRows(rows)

	out, err := repo.ListByMapping(context.Background(), "user-1", "map-1")
	if err != nil {
		t.Fatalf("ListByMapping: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Sender != SenderUser || out[1].Sender != SenderBot {
		t.Fatalf("unexpected senders: %s, %s", out[0].Sender, out[1].Sender)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

// passthroughConverter lets non-standard driver values like []string reach
// the mock, the way the pgx driver accepts them for ANY($n) parameters.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) {
	return v, nil
}

func TestPGRepoListByMappingsGrouped(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "mapping_id", "message_text", "sender", "sent_at", "created_at",
	}).
		AddRow("msg-1", "user-1", "map-1", "question", "user", now.Add(-2*time.Minute), now.Add(-2*time.Minute)).
		AddRow("msg-2", "user-1", "map-2", "other question", "user", now.Add(-time.Minute), now.Add(-time.Minute)).
		AddRow("msg-3", "user-1", "map-1", "answer", "bot", now, now)

	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("user-1", []string{"map-1", "map-2"}).
		WillReturnRows(rows)

	grouped, err := repo.ListByMappings(context.Background(), "user-1", []string{"map-1", "map-2"})
	if err != nil {
		t.Fatalf("ListByMappings: %v", err)
	}
	if len(grouped) != 2 {
		t.Fatalf("len(grouped) = %d, want 2", len(grouped))
	}
	if msgs := grouped["map-1"]; len(msgs) != 2 || msgs[0].ID != "msg-1" || msgs[1].ID != "msg-3" {
		t.Fatalf("map-1 messages = %+v", msgs)
	}
	if msgs := grouped["map-2"]; len(msgs) != 1 || msgs[0].ID != "msg-2" {
		t.Fatalf("map-2 messages = %+v", msgs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByMappingsEmptyInput(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	grouped, err := repo.ListByMappings(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("ListByMappings: %v", err)
	}
	if len(grouped) != 0 {
		t.Fatalf("expected empty map, got %v", grouped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLastMessageTimeNilWhenEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT sent_at").
		WithArgs("user-1", "map-empty").
		WillReturnRows(sqlmock.NewRows([]string{"sent_at"}))

	last, err := repo.LastMessageTime(context.Background(), "user-1", "map-empty")
	if err != nil {
		t.Fatalf("LastMessageTime: %v", err)
	}
	if last != nil {
		t.Fatalf("last = %v, want nil", last)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoHasHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", "map-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	has, err := repo.HasHistory(context.Background(), "user-1", "map-1")
	if err != nil {
		t.Fatalf("HasHistory: %v", err)
	}
	if !has {
		t.Fatalf("expected history")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestMemoryRepoTranscriptFlow(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	insert := func(id, mappingID, text string, sender Sender, at time.Time) {
		t.Helper()
		if err := repo.Insert(ctx, Message{
			ID: id, UserID: "u1", MappingID: mappingID,
			Text: text, Sender: sender, SentAt: at, CreatedAt: at,
		}); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	insert("m2", "map-1", "answer", SenderBot, base.Add(2*time.Minute))
	insert("m1", "map-1", "question", SenderUser, base.Add(time.Minute))
	insert("m3", "map-2", "other doc", SenderUser, base.Add(3*time.Minute))

	out, err := repo.ListByMapping(ctx, "u1", "map-1")
	if err != nil {
		t.Fatalf("ListByMapping: %v", err)
	}
	if len(out) != 2 || out[0].ID != "m1" || out[1].ID != "m2" {
		t.Fatalf("expected ascending order, got %+v", out)
	}

	grouped, err := repo.ListByMappings(ctx, "u1", []string{"map-1", "map-2"})
	if err != nil {
		t.Fatalf("ListByMappings: %v", err)
	}
	if len(grouped["map-1"]) != 2 || len(grouped["map-2"]) != 1 {
		t.Fatalf("unexpected grouping: %v", grouped)
	}

	last, err := repo.LastMessageTime(ctx, "u1", "map-1")
	if err != nil {
		t.Fatalf("LastMessageTime: %v", err)
	}
	if last == nil || !last.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("last = %v", last)
	}

	if err := repo.DeleteByMapping(ctx, "u1", "map-1"); err != nil {
		t.Fatalf("DeleteByMapping: %v", err)
	}
	has, err := repo.HasHistory(ctx, "u1", "map-1")
	if err != nil {
		t.Fatalf("HasHistory: %v", err)
	}
	if has {
		t.Fatalf("expected no history after delete")
	}
	none, err := repo.LastMessageTime(ctx, "u1", "map-1")
	if err != nil || none != nil {
		t.Fatalf("LastMessageTime after delete = %v, %v", none, err)
	}
}
