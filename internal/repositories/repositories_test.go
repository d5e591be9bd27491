package repositories

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestChatListOrdersByUpdatedAt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	first, second := uuid.New(), uuid.New()
	rows := sqlmock.NewRows([]string{"id", "title", "updated_at"}).
		AddRow(first.String(), "Backend review", time.Now()).
		AddRow(second.String(), "New Chat", time.Now().Add(-time.Hour))
	mock.ExpectQuery(`SELECT .* FROM "chats" ORDER BY updated_at DESC LIMIT`).WillReturnRows(rows)

	chats, err := repo.List(50)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, first, chats[0].ID)
	assert.Equal(t, "Backend review", chats[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatFindByIDLoadsMessages(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	chatID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "chats" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at", "updated_at"}).
			AddRow(chatID.String(), "Analysis", time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "messages" WHERE "messages"."chat_id" = $1 ORDER BY created_at ASC`)).
		WithArgs(chatID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "chat_id", "role", "content", "created_at"}).
			AddRow(uuid.New().String(), chatID.String(), "user", "I know Go", time.Now()).
			AddRow(uuid.New().String(), chatID.String(), "assistant", "## Skill Gaps", time.Now()))

	chat, err := repo.FindByID(chatID)
	require.NoError(t, err)
	assert.Equal(t, "Analysis", chat.Title)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "user", chat.Messages[0].Role)
	assert.Equal(t, "## Skill Gaps", chat.Messages[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "chats" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	_, err := repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestChatDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)
	chatID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "messages" WHERE chat_id = \$1`).WithArgs(chatID).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "chats" WHERE id = \$1`).WithArgs(chatID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(chatID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatDeleteNotFoundRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)
	chatID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "messages"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "chats"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(chatID)
	assert.ErrorIs(t, err, ErrChatNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatUpdateTitleOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)
	chatID := uuid.New()
	title := "Renamed"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "chats" SET .* WHERE id = \$3`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "chats" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(chatID.String(), title))
	mock.ExpectQuery(`SELECT \* FROM "messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "chat_id", "role", "content"}))

	chat, err := repo.Update(chatID, &title, nil)
	require.NoError(t, err)
	assert.Equal(t, title, chat.Title)
	assert.Empty(t, chat.Messages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatUpdateMissingChat(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "chats"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Update(uuid.New(), nil, nil)
	assert.ErrorIs(t, err, ErrChatNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationFindByTraceID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEvaluationRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "evaluations" WHERE trace_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trace_id", "accuracy", "overall", "reasoning"}).
			AddRow(uuid.New().String(), "1700000000000-abcd1234", 80.0, 73.5, "Solid."))

	eval, err := repo.FindByTraceID("1700000000000-abcd1234")
	require.NoError(t, err)
	assert.Equal(t, 80.0, eval.Accuracy)
	assert.Equal(t, 73.5, eval.Overall)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationFindByTraceIDErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEvaluationRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "evaluations"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := repo.FindByTraceID("missing")
	assert.ErrorIs(t, err, ErrEvaluationNotFound)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT \* FROM "evaluations"`).WillReturnError(boom)
	_, err = repo.FindByTraceID("broken")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEvaluationNotFound)
}
