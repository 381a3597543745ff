package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"shoppingmall/internal/domain/model"
	"shoppingmall/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks / stubs
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID string) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

type ProfileRepoMock struct{ mock.Mock }

func (m *ProfileRepoMock) Create(ctx context.Context, profile model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *ProfileRepoMock) FindByUserID(ctx context.Context, userID string) (model.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(model.Profile)
	return p, args.Error(1)
}

type stubHasher struct{}

func (stubHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

type stubVerifier struct{}

func (stubVerifier) Verify(plain string, hashed string) bool {
	return hashed == "hashed:"+plain
}

type stubIDGen struct{ id string }

func (g stubIDGen) NewID() string { return g.id }

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

type stubIssuer struct{ err error }

func (i stubIssuer) Issue(userID string, email string, now time.Time) (string, time.Time, error) {
	if i.err != nil {
		return "", time.Time{}, i.err
	}
	return "token-" + userID, now.Add(time.Hour), nil
}

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func newProviderForTest(userRepo *UserRepoMock, profileRepo *ProfileRepoMock) *Provider {
	return NewProvider(
		userRepo, profileRepo,
		stubHasher{}, stubVerifier{}, stubIssuer{},
		stubIDGen{id: "user-uuid-1"}, stubClock{now: testNow},
		zerolog.Nop(),
	)
}

func confirmedUser(password string) model.User {
	confirmed := testNow.Add(-24 * time.Hour)
	return model.User{
		ID:               "user-uuid-1",
		Email:            "hong@example.com",
		PasswordHash:     "hashed:" + password,
		Name:             "홍길동",
		EmailConfirmedAt: &confirmed,
	}
}

// =====================
// SignUp
// =====================

func TestProvider_SignUp_InvalidEmail(t *testing.T) {
	p := newProviderForTest(new(UserRepoMock), new(ProfileRepoMock))

	_, err := p.SignUp(context.Background(), SignUpInput{Email: "not-an-email", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)
}

func TestProvider_SignUp_PasswordTooShort(t *testing.T) {
	p := newProviderForTest(new(UserRepoMock), new(ProfileRepoMock))

	_, err := p.SignUp(context.Background(), SignUpInput{Email: "hong@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestProvider_SignUp_DuplicateEmail(t *testing.T) {
	userRepo := new(UserRepoMock)
	userRepo.On("FindByEmail", mock.Anything, "hong@example.com").Return(confirmedUser("x"), nil)

	p := newProviderForTest(userRepo, new(ProfileRepoMock))

	_, err := p.SignUp(context.Background(), SignUpInput{Email: "hong@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestProvider_SignUp_Success(t *testing.T) {
	userRepo := new(UserRepoMock)
	profileRepo := new(ProfileRepoMock)

	userRepo.On("FindByEmail", mock.Anything, "hong@example.com").Return(model.User{}, repository.ErrNotFound)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.ID == "user-uuid-1" &&
			u.PasswordHash == "hashed:password123" &&
			u.EmailConfirmedAt == nil
	})).Return(nil)
	profileRepo.On("Create", mock.Anything, mock.MatchedBy(func(pr model.Profile) bool {
		return pr.UserID == "user-uuid-1" && pr.Name == "홍길동"
	})).Return(nil)

	p := newProviderForTest(userRepo, profileRepo)

	user, err := p.SignUp(context.Background(), SignUpInput{
		Email:    "hong@example.com",
		Password: "password123",
		Name:     " 홍길동 ",
	})
	assert.NoError(t, err)
	assert.Equal(t, "user-uuid-1", user.ID)
	assert.Equal(t, "홍길동", user.Name)
	// ハッシュは外に出さない
	assert.Empty(t, user.PasswordHash)

	userRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
}

// プロフィール行の作成失敗は登録を失敗にしない
func TestProvider_SignUp_ProfileFailureIsNonFatal(t *testing.T) {
	userRepo := new(UserRepoMock)
	profileRepo := new(ProfileRepoMock)

	userRepo.On("FindByEmail", mock.Anything, "hong@example.com").Return(model.User{}, repository.ErrNotFound)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	profileRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	p := newProviderForTest(userRepo, profileRepo)

	_, err := p.SignUp(context.Background(), SignUpInput{
		Email:    "hong@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)
}

// =====================
// SignIn / SignOut
// =====================

func TestProvider_SignIn_UnknownEmail(t *testing.T) {
	userRepo := new(UserRepoMock)
	userRepo.On("FindByEmail", mock.Anything, "none@example.com").Return(model.User{}, repository.ErrNotFound)

	p := newProviderForTest(userRepo, new(ProfileRepoMock))

	_, err := p.SignIn(context.Background(), "none@example.com", "password123")
	// 存在有無は区別しない
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProvider_SignIn_WrongPassword(t *testing.T) {
	userRepo := new(UserRepoMock)
	userRepo.On("FindByEmail", mock.Anything, "hong@example.com").Return(confirmedUser("password123"), nil)

	p := newProviderForTest(userRepo, new(ProfileRepoMock))

	_, err := p.SignIn(context.Background(), "hong@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, p.GetSession())
}

func TestProvider_SignIn_EmailNotConfirmed(t *testing.T) {
	user := confirmedUser("password123")
	user.EmailConfirmedAt = nil

	userRepo := new(UserRepoMock)
	userRepo.On("FindByEmail", mock.Anything, "hong@example.com").Return(user, nil)

	p := newProviderForTest(userRepo, new(ProfileRepoMock))

	_, err := p.SignIn(context.Background(), "hong@example.com", "password123")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)
}

func TestProvider_SignIn_Success_SetsSession(t *testing.T) {
	userRepo := new(UserRepoMock)
	userRepo.On("FindByEmail", mock.Anything, "hong@example.com").Return(confirmedUser("password123"), nil)

	p := newProviderForTest(userRepo, new(ProfileRepoMock))

	sess, err := p.SignIn(context.Background(), "hong@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, "user-uuid-1", sess.UserID)
	assert.Equal(t, "token-user-uuid-1", sess.AccessToken)
	assert.Equal(t, testNow.Add(time.Hour), sess.ExpiresAt)

	current := p.GetSession()
	assert.NotNil(t, current)
	assert.Equal(t, "user-uuid-1", current.UserID)
}

func TestProvider_SignOut_ClearsSession(t *testing.T) {
	userRepo := new(UserRepoMock)
	userRepo.On("FindByEmail", mock.Anything, "hong@example.com").Return(confirmedUser("password123"), nil)

	p := newProviderForTest(userRepo, new(ProfileRepoMock))

	_, err := p.SignIn(context.Background(), "hong@example.com", "password123")
	assert.NoError(t, err)

	assert.NoError(t, p.SignOut(context.Background()))
	assert.Nil(t, p.GetSession())
}

// =====================
// セッション購読
// =====================

func TestProvider_OnSessionChange_NotifiesSubscribers(t *testing.T) {
	userRepo := new(UserRepoMock)
	userRepo.On("FindByEmail", mock.Anything, "hong@example.com").Return(confirmedUser("password123"), nil)

	p := newProviderForTest(userRepo, new(ProfileRepoMock))

	var got []*model.Session
	unsub := p.OnSessionChange(func(s *model.Session) {
		got = append(got, s)
	})

	_, err := p.SignIn(context.Background(), "hong@example.com", "password123")
	assert.NoError(t, err)
	assert.NoError(t, p.SignOut(context.Background()))

	// ログインとログアウトで2回通知される
	assert.Equal(t, 2, len(got))
	assert.NotNil(t, got[0])
	assert.Equal(t, "user-uuid-1", got[0].UserID)
	assert.Nil(t, got[1])

	// 解除後は通知されない
	unsub()
	_, err = p.SignIn(context.Background(), "hong@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(got))
}
