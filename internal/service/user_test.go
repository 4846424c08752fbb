package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"usersapi/internal/model"
	repoMocks "usersapi/internal/repository/mocks"
	"usersapi/internal/roster"
	"usersapi/internal/storage"
	storeMocks "usersapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestService() (*repoMocks.MockUserRepository, *storeMocks.MockStorage, *roster.Roster, UserService) {
	mRepo := new(repoMocks.MockUserRepository)
	mStore := new(storeMocks.MockStorage)
	r := roster.New()
	return mRepo, mStore, r, NewUserService(mRepo, r, mStore)
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces roster with fetched users", func(t *testing.T) {
		mRepo, _, r, svc := newTestService()
		r.Add(model.User{ID: "stale", Name: "Stale", Age: 1})

		fetched := []model.User{
			{ID: "u-1", Name: "Alice", Age: 30},
			{ID: "u-2", Name: "Bob", Age: 24},
		}
		mRepo.On("FetchAll", mock.Anything).Return(fetched, nil)

		users, err := svc.List(ctx)

		assert.NoError(t, err)
		assert.Equal(t, fetched, users)
		assert.Equal(t, 2, r.Len())
		_, ok := r.Get("stale")
		assert.False(t, ok)
		mRepo.AssertExpectations(t)
	})

	t.Run("repository error leaves roster untouched", func(t *testing.T) {
		mRepo, _, r, svc := newTestService()
		r.Add(model.User{ID: "u-1", Name: "Alice", Age: 30})

		mRepo.On("FetchAll", mock.Anything).Return(nil, errors.New("remote fail"))

		users, err := svc.List(ctx)

		assert.Error(t, err)
		assert.Nil(t, users)
		assert.Equal(t, 1, r.Len())
	})
}

func TestUserService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("create then read returns same name and age", func(t *testing.T) {
		mRepo, _, _, svc := newTestService()

		u := model.User{ID: "u-1", Name: "Alice", Age: 30}
		mRepo.On("Set", mock.Anything, &u).Return(&u, nil)
		mRepo.On("FindByID", mock.Anything, "u-1").Return(&u, nil)

		created, err := svc.Create(ctx, u)
		assert.NoError(t, err)

		got, err := svc.Get(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, 30, got.Age)
	})

	t.Run("empty id", func(t *testing.T) {
		_, _, _, svc := newTestService()

		_, err := svc.Get(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("missing id translates to ErrNotFound", func(t *testing.T) {
		mRepo, _, _, svc := newTestService()
		mRepo.On("FindByID", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

		_, err := svc.Get(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("adds to roster", func(t *testing.T) {
		mRepo, _, r, svc := newTestService()

		u := model.User{ID: "u-1", Name: "Alice", Age: 30}
		mRepo.On("Set", mock.Anything, &u).Return(&u, nil)

		before := r.Len()
		created, err := svc.Create(ctx, u)

		assert.NoError(t, err)
		assert.Equal(t, "u-1", created.ID)
		assert.Equal(t, before+1, r.Len())
	})

	t.Run("generates id when caller omits it", func(t *testing.T) {
		mRepo, _, _, svc := newTestService()

		mRepo.On("Set", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.ID != "" && u.Name == "Bob"
		})).Return(&model.User{ID: "generated", Name: "Bob", Age: 24}, nil)

		created, err := svc.Create(ctx, model.User{Name: "Bob", Age: 24})

		assert.NoError(t, err)
		assert.Equal(t, "generated", created.ID)
	})

	t.Run("store error skips roster", func(t *testing.T) {
		mRepo, _, r, svc := newTestService()

		mRepo.On("Set", mock.Anything, mock.Anything).Return(nil, errors.New("remote fail"))

		_, err := svc.Create(ctx, model.User{ID: "u-1", Name: "Alice"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "set user")
		assert.Zero(t, r.Len())
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("preserves id and mirrors into roster", func(t *testing.T) {
		mRepo, _, r, svc := newTestService()
		r.Add(model.User{ID: "u-1", Name: "Alice", Age: 30})

		updated := model.User{ID: "u-1", Name: "Alice Cooper", Age: 31}
		mRepo.On("Update", mock.Anything, &updated).Return(&updated, nil)

		out, err := svc.Update(ctx, updated)

		assert.NoError(t, err)
		assert.Equal(t, "u-1", out.ID)

		inRoster, _ := r.Get("u-1")
		assert.Equal(t, "Alice Cooper", inRoster.Name)
		assert.Equal(t, 31, inRoster.Age)
	})

	t.Run("empty id", func(t *testing.T) {
		_, _, _, svc := newTestService()

		_, err := svc.Update(ctx, model.User{Name: "nobody"})
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("missing row translates to ErrNotFound", func(t *testing.T) {
		mRepo, _, _, svc := newTestService()
		mRepo.On("Update", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)

		_, err := svc.Update(ctx, model.User{ID: "ghost", Name: "Nobody"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes from store, roster, and avatar bucket", func(t *testing.T) {
		mRepo, mStore, r, svc := newTestService()
		r.Add(model.User{ID: "u-1", Name: "Alice", Age: 30})

		mRepo.On("FindByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1"}, nil)
		mRepo.On("Delete", mock.Anything, "u-1").Return(nil)
		mStore.On("Delete", mock.Anything, "avatars/u-1").Return(nil)

		err := svc.Delete(ctx, "u-1")

		assert.NoError(t, err)
		assert.Zero(t, r.Len())
		mStore.AssertExpectations(t)
	})

	t.Run("avatar delete failure is swallowed", func(t *testing.T) {
		mRepo, mStore, _, svc := newTestService()

		mRepo.On("FindByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1"}, nil)
		mRepo.On("Delete", mock.Anything, "u-1").Return(nil)
		mStore.On("Delete", mock.Anything, "avatars/u-1").Return(errors.New("no such object"))

		assert.NoError(t, svc.Delete(ctx, "u-1"))
	})

	t.Run("missing user", func(t *testing.T) {
		mRepo, _, _, svc := newTestService()
		mRepo.On("FindByID", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

		err := svc.Delete(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, _, _, svc := newTestService()
		assert.ErrorIs(t, svc.Delete(ctx, ""), ErrIDRequired)
	})
}

func TestUserService_UploadAvatar(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo, mStore, _, svc := newTestService()

		r := strings.NewReader("png bytes")
		mRepo.On("FindByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1"}, nil)
		mStore.On("Put", mock.Anything, "avatars/u-1", r, storage.PutObjectOptions{
			Size:        9,
			ContentType: "image/png",
			Metadata:    map[string]string{"original-filename": "me.png"},
		}).Return(storage.ObjectInfo{Key: "avatars/u-1", Size: 9}, nil)

		key, err := svc.UploadAvatar(ctx, "u-1", r, "me.png", "image/png", 9)

		assert.NoError(t, err)
		assert.Equal(t, "avatars/u-1", key)
	})

	t.Run("nil reader", func(t *testing.T) {
		_, _, _, svc := newTestService()

		_, err := svc.UploadAvatar(ctx, "u-1", nil, "me.png", "image/png", 0)
		assert.ErrorIs(t, err, ErrReaderNil)
	})

	t.Run("missing user", func(t *testing.T) {
		mRepo, _, _, svc := newTestService()
		mRepo.On("FindByID", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

		_, err := svc.UploadAvatar(ctx, "ghost", strings.NewReader("x"), "me.png", "image/png", 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("storage error", func(t *testing.T) {
		mRepo, mStore, _, svc := newTestService()

		mRepo.On("FindByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1"}, nil)
		mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("storage fail"))

		_, err := svc.UploadAvatar(ctx, "u-1", strings.NewReader("x"), "me.png", "image/png", 1)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "upload avatar")
	})
}

func TestUserService_AvatarURL(t *testing.T) {
	ctx := context.Background()

	t.Run("presigns the avatar key", func(t *testing.T) {
		mRepo, mStore, _, svc := newTestService()

		mRepo.On("FindByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1"}, nil)
		mStore.On("PresignGet", mock.Anything, "avatars/u-1", AvatarURLExpiry).
			Return("https://minio.local/avatars/u-1?sig=abc", nil)

		url, err := svc.AvatarURL(ctx, "u-1")

		assert.NoError(t, err)
		assert.Contains(t, url, "avatars/u-1")
	})

	t.Run("missing user", func(t *testing.T) {
		mRepo, _, _, svc := newTestService()
		mRepo.On("FindByID", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

		_, err := svc.AvatarURL(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
