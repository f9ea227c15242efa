package service_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"easylist/internal/model"
	"easylist/internal/notify"
	"easylist/internal/repository"
	"easylist/internal/sanitize"
	"easylist/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.Completion
}

func (r *recordingNotifier) NotifyCompletion(_ context.Context, n notify.Completion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) Notices() []notify.Completion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Completion(nil), r.notices...)
}

type testEnv struct {
	svc      *service.ListService
	lists    *repository.ListRepository
	users    *repository.UserRepository
	notifier *recordingNotifier
	logs     *bytes.Buffer
}

func defaultOptions() service.Options {
	return service.Options{
		ShareBaseURL:        "https://easylist.link/list/",
		DeleteRequiresOwner: true,
	}
}

func setupTestEnv(t *testing.T, opts service.Options) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.List{}))

	env := &testEnv{
		lists:    repository.NewListRepository(db),
		users:    repository.NewUserRepository(db),
		notifier: &recordingNotifier{},
		logs:     &bytes.Buffer{},
	}
	env.svc = service.NewListService(
		env.lists,
		env.users,
		sanitize.New(),
		env.notifier,
		slog.New(slog.NewTextHandler(env.logs, nil)),
		opts,
	)
	return env
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{Email: username + "@example.com", Username: username}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) createList(t *testing.T, owner *model.User, in service.CreateListInput) *model.List {
	t.Helper()
	if in.Name == "" {
		in.Name = "Groceries"
	}
	if in.HTML == "" {
		in.HTML = "<ul><li>milk</li></ul>"
	}
	if in.BackgroundColor == "" {
		in.BackgroundColor = "#fff"
	}
	list, err := e.svc.Create(context.Background(), owner.ID, in)
	require.NoError(t, err)
	return list
}

func (e *testEnv) createPublicList(t *testing.T, owner *model.User, notificationsOn bool) *model.List {
	t.Helper()
	return e.createList(t, owner, service.CreateListInput{NotificationsOn: notificationsOn})
}
