package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"ruangpena/internal/credentials"
	"ruangpena/internal/handlers"
	"ruangpena/internal/middleware"
	"ruangpena/internal/repositories"
	"ruangpena/internal/services"
	"ruangpena/pkg/client"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// newServer runs the API on in-memory repositories behind a real HTTP listener.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	userRepo := repositories.NewMockUserRepository()
	journalRepo := repositories.NewMockJournalRepository()
	tokens, err := credentials.NewTokenManager("client_test_secret", time.Hour)
	require.NoError(t, err)

	authService := services.NewAuthService(userRepo, tokens, bcrypt.MinCost)
	resetService := services.NewPasswordResetService(userRepo, repositories.NewMockResetCodeRepository(), services.LogResetCodeSender{}, time.Minute, bcrypt.MinCost)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	api := app.Group("/api")
	guard := middleware.AuthRequired(authService)
	handlers.NewAuthHandler(authService, resetService).RegisterRoutes(api)
	handlers.NewUserHandler(services.NewUserService(userRepo, journalRepo, nil, bcrypt.MinCost)).RegisterRoutes(api, guard)
	handlers.NewJournalHandler(services.NewJournalService(journalRepo, userRepo, nil)).RegisterRoutes(api, guard)

	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionPersistsAcrossClients(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first := client.New(srv.URL, client.NewFileSessionStore(path))
	user, err := first.Register(ctx, client.RegisterInput{Email: "alice@example.com", Password: "Passw0rd1", ConfirmPassword: "Passw0rd1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A second process picks the session up from disk.
	second := client.New(srv.URL, client.NewFileSessionStore(path))
	me, err := second.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	require.NoError(t, second.Logout())
	session, err := first.Session()
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = first.ListJournals(ctx, client.ListOptions{})
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestNilStoreUsesDefaultSessionPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("config directory is only redirected through XDG_CONFIG_HOME on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	srv := newServer(t)

	path, err := client.DefaultSessionPath()
	require.NoError(t, err)

	c := client.New(srv.URL, nil)
	_, err = c.Register(context.Background(), client.RegisterInput{Email: "dana@example.com", Password: "Passw0rd1", ConfirmPassword: "Passw0rd1"})
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "ruangpena", "session.json"), path)

	session, err := client.NewFileSessionStore(path).Load()
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "dana@example.com", session.User.Email)
}

func TestJournalRoundTrip(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := client.New(srv.URL, client.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json")))

	_, err := c.Register(ctx, client.RegisterInput{Email: "alice@example.com", Password: "Passw0rd1", ConfirmPassword: "Passw0rd1"})
	require.NoError(t, err)

	created, err := c.CreateJournal(ctx, client.NewJournal{Content: "today was fine", Type: "daily", Tags: []string{"calm"}})
	require.NoError(t, err)
	assert.Equal(t, "Jurnal Harian", created.TypeName)

	_, err = c.CreateJournal(ctx, client.NewJournal{Content: "flying", Type: "dream"})
	require.NoError(t, err)

	dreams, err := c.ListJournals(ctx, client.ListOptions{Type: "dream"})
	require.NoError(t, err)
	assert.Len(t, dreams, 1)

	title := "Calm day"
	updated, err := c.UpdateJournal(ctx, created.ID, client.JournalChanges{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Calm day", updated.Title)
	assert.Equal(t, []string{"calm"}, updated.Tags)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(0), stats.ByType["bullet"])

	require.NoError(t, c.DeleteJournal(ctx, created.ID))
	_, err = c.GetJournal(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, client.StatusCode(err))
}

func TestAPIErrorsAndUnauthorized(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	store := client.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	c := client.New(srv.URL, store)

	_, err := c.Login(ctx, "nobody@example.com", "Passw0rd1")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	// A rejected token clears the stored session.
	require.NoError(t, store.Save(&client.Session{Token: "forged"}))
	_, err = c.Me(ctx)
	assert.Equal(t, http.StatusUnauthorized, client.StatusCode(err))
	session, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestDeleteAccountClearsSession(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	store := client.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	c := client.New(srv.URL, store)

	_, err := c.Register(ctx, client.RegisterInput{Email: "alice@example.com", Password: "Passw0rd1", ConfirmPassword: "Passw0rd1"})
	require.NoError(t, err)

	err = c.DeleteAccount(ctx, "Wr0ngPass1")
	assert.Equal(t, http.StatusBadRequest, client.StatusCode(err))

	require.NoError(t, c.DeleteAccount(ctx, "Passw0rd1"))
	session, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestFileSessionStoreEmpty(t *testing.T) {
	store := client.NewFileSessionStore(filepath.Join(t.TempDir(), "missing.json"))

	session, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.NoError(t, store.Clear())
}
