package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/internal/seeds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupApp(t *testing.T, seeded bool) *App {
	t.Helper()
	color.NoColor = true

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	if seeded {
		f, err := seeds.Default()
		require.NoError(t, err)
		_, err = seeds.Apply(db, f, testNow)
		require.NoError(t, err)
	}
	return &App{DB: db, Now: func() time.Time { return testNow }}
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPromote(t *testing.T) {
	app := setupApp(t, true)

	out, err := run(t, app, "promote", "--email", "Priya@RentItOut.local", "--role", "seller")
	require.NoError(t, err)
	assert.Contains(t, out, "priya@rentitout.local: buyer -> seller")

	var u models.User
	require.NoError(t, app.DB.Where("email = ?", "priya@rentitout.local").First(&u).Error)
	assert.Equal(t, models.RoleSeller, u.Role)

	var audit models.AdminAction
	require.NoError(t, app.DB.Where("target_id = ?", u.ID).First(&audit).Error)
	assert.Equal(t, models.CLIActor, audit.AdminID)
	assert.Equal(t, models.ActionChangeRole, audit.Action)
	assert.Equal(t, "buyer -> seller", audit.Reason)

	out, err = run(t, app, "promote", "--email", "priya@rentitout.local", "--role", "seller")
	require.NoError(t, err)
	assert.Contains(t, out, "already seller")

	_, err = run(t, app, "promote", "--email", "nobody@rentitout.local")
	assert.ErrorContains(t, err, "no user with email")

	_, err = run(t, app, "promote", "--email", "priya@rentitout.local", "--role", "owner")
	assert.ErrorContains(t, err, "invalid role")

	_, err = run(t, app, "promote")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	app := setupApp(t, true)

	out, err := run(t, app, "stats", "--top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "seller   2")
	assert.Contains(t, out, "Listings  4 (3 available)")
	assert.Contains(t, out, "Messages  5 across 3 listings")
	assert.Contains(t, out, "Red Silk Lehenga")
	assert.NotContains(t, out, "Ivory Sherwani")
}

func TestConversations(t *testing.T) {
	app := setupApp(t, true)

	out, err := run(t, app, "conversations", "--email", "meera@rentitout.local")
	require.NoError(t, err)
	assert.Contains(t, out, "Kundan Necklace Set with Karan Mehta (1 messages)")
	assert.Contains(t, out, "Red Silk Lehenga with Priya Shah (3 messages)")
	assert.Contains(t, out, "30 minutes ago")
	// Most recent first
	assert.Less(t, bytes.Index([]byte(out), []byte("Kundan")), bytes.Index([]byte(out), []byte("Lehenga")))

	out, err = run(t, app, "conversations", "--email", "admin@rentitout.local")
	require.NoError(t, err)
	assert.Contains(t, out, "has no conversations")
}

func TestSeedAndMigrate(t *testing.T) {
	app := setupApp(t, false)

	out, err := run(t, app, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 5 users, 4 listings, 5 messages")

	out, err = run(t, app, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 users, 0 listings, 0 messages")

	out, err = run(t, app, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending  001_chat_participant_indexes")

	out, err = run(t, app, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is up to date")

	out, err = run(t, app, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "applied  003_normalize_emails")

	out, err = run(t, app, "migrate", "--rollback", "003_normalize_emails")
	require.NoError(t, err)
	assert.Contains(t, out, "Rolled back 003_normalize_emails")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	long := "Is the lehenga available for the first week of December and January?"
	p := preview(long)
	assert.Len(t, []rune(p), previewLen)
	assert.True(t, len(p) < len(long))
}
