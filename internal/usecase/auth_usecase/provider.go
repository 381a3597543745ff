package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"

	"shoppingmall/internal/domain/model"
	"shoppingmall/internal/repository"

	"github.com/rs/zerolog"
)

// Provider は認証プロバイダ。
// SignIn/SignUp/SignOutと、現在セッションの購読（GetSession/OnSessionChange）
// を提供する。他コンポーネントはここを読み取り専用で参照する。
type Provider struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	hasher      PasswordHasher
	verifier    PasswordVerifier
	issuer      AccessTokenIssuer
	idGen       IDGenerator
	clock       Clock
	log         zerolog.Logger

	mu      sync.RWMutex
	current *model.Session
	subs    map[int]SessionCallback
	nextSub int
}

// DI
func NewProvider(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	idGen IDGenerator,
	clock Clock,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		hasher:      hasher,
		verifier:    verifier,
		issuer:      issuer,
		idGen:       idGen,
		clock:       clock,
		log:         log.With().Str("component", "auth").Logger(),
		subs:        map[int]SessionCallback{},
	}
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// SignUp は会員登録。プロフィール行の作成失敗は登録の失敗にしない。
func (p *Provider) SignUp(ctx context.Context, in SignUpInput) (model.User, error) {
	if !isValidEmailFormat(in.Email) {
		return model.User{}, ErrInvalidEmailFormat
	}
	if len(in.Password) < 8 {
		return model.User{}, ErrPasswordTooShort
	}

	// email重複チェック
	_, err := p.userRepo.FindByEmail(ctx, in.Email)
	if err == nil {
		return model.User{}, ErrEmailAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	hashed, err := p.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}

	now := p.clock.Now()
	user := model.User{
		ID:           p.idGen.NewID(),
		Email:        in.Email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(in.Name),
		// メール認証が済むまでnil
		EmailConfirmedAt: nil,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := p.userRepo.Create(ctx, user); err != nil {
		return model.User{}, err
	}

	if err := p.profileRepo.Create(ctx, model.Profile{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: now,
	}); err != nil {
		p.log.Warn().Err(err).Str("user_id", user.ID).Msg("profile creation failed")
	}

	// 返すときはハッシュを空にして漏洩防止
	user.PasswordHash = ""
	return user, nil
}

// SignIn はログインして現在セッションを差し替える。
func (p *Provider) SignIn(ctx context.Context, email string, password string) (model.Session, error) {
	user, err := p.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Session{}, err
	}

	if !p.verifier.Verify(password, user.PasswordHash) {
		return model.Session{}, ErrInvalidCredentials
	}

	if user.EmailConfirmedAt == nil {
		return model.Session{}, ErrEmailNotConfirmed
	}

	now := p.clock.Now()
	token, expiresAt, err := p.issuer.Issue(user.ID, user.Email, now)
	if err != nil {
		return model.Session{}, err
	}

	session := model.Session{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}

	p.setSession(&session)
	return session, nil
}

// SignOut は現在セッションを破棄する。
func (p *Provider) SignOut(ctx context.Context) error {
	p.setSession(nil)
	return nil
}

// GetSession は現在セッション（無ければnil）を返す。
func (p *Provider) GetSession() *model.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	s := *p.current
	return &s
}

// OnSessionChange はセッション変更の購読を登録し、解除関数を返す。
func (p *Provider) OnSessionChange(cb func(session *model.Session)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = cb
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Provider) setSession(s *model.Session) {
	p.mu.Lock()
	p.current = s
	cbs := make([]SessionCallback, 0, len(p.subs))
	for _, cb := range p.subs {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	// ロック外で通知（コールバックがGetSessionを呼んでも詰まらない）
	for _, cb := range cbs {
		cb(s)
	}
}

// メールチェック
func isValidEmailFormat(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return false
	}
	_, err := mail.ParseAddress(trimmed)
	return err == nil
}
