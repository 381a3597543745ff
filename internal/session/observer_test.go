package session

import (
	"testing"

	"shoppingmall/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

type stubSource struct {
	current    *model.Session
	cb         func(*model.Session)
	unsubbed   bool
	subscribed bool
}

func (s *stubSource) GetSession() *model.Session {
	return s.current
}

func (s *stubSource) OnSessionChange(cb func(session *model.Session)) func() {
	s.cb = cb
	s.subscribed = true
	return func() {
		s.cb = nil
		s.unsubbed = true
	}
}

func TestObserver_SeedsFromCurrentSession(t *testing.T) {
	src := &stubSource{current: &model.Session{UserID: "user-1", Email: "a@example.com"}}

	o := NewObserver(src)
	defer o.Close()

	s := o.Current()
	assert.NotNil(t, s)
	assert.Equal(t, "user-1", s.UserID)
}

func TestObserver_NilSessionBeforeSignIn(t *testing.T) {
	o := NewObserver(&stubSource{})
	defer o.Close()

	assert.Nil(t, o.Current())
}

func TestObserver_FollowsSessionChanges(t *testing.T) {
	src := &stubSource{}
	o := NewObserver(src)
	defer o.Close()

	// ログイン
	src.cb(&model.Session{UserID: "user-1"})
	s := o.Current()
	assert.NotNil(t, s)
	assert.Equal(t, "user-1", s.UserID)

	// ログアウト
	src.cb(nil)
	assert.Nil(t, o.Current())
}

func TestObserver_CurrentReturnsCopy(t *testing.T) {
	src := &stubSource{current: &model.Session{UserID: "user-1"}}
	o := NewObserver(src)
	defer o.Close()

	s := o.Current()
	s.UserID = "tampered"

	assert.Equal(t, "user-1", o.Current().UserID)
}

func TestObserver_CloseUnsubscribes(t *testing.T) {
	src := &stubSource{}
	o := NewObserver(src)
	assert.True(t, src.subscribed)

	o.Close()
	assert.True(t, src.unsubbed)

	// 二重Closeは安全
	o.Close()
}
