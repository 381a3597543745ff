package session

import (
	"sync"

	"shoppingmall/internal/domain/model"
)

// 認証プロバイダの購読面だけを切り出した約束
type Source interface {
	GetSession() *model.Session
	OnSessionChange(cb func(session *model.Session)) (unsubscribe func())
}

// Observer は認証プロバイダのセッション変更を購読して現在値を公開する。
// 読み取り専用で、セッション状態を自分から変更することはない。
type Observer struct {
	mu      sync.RWMutex
	current *model.Session
	unsub   func()
}

func NewObserver(src Source) *Observer {
	o := &Observer{}
	// 購読前の現在値で初期化してから変更を追う
	o.current = src.GetSession()
	o.unsub = src.OnSessionChange(func(s *model.Session) {
		o.mu.Lock()
		o.current = s
		o.mu.Unlock()
	})
	return o
}

// Current は現在セッション（無ければnil）を返す
func (o *Observer) Current() *model.Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.current == nil {
		return nil
	}
	s := *o.current
	return &s
}

// Close は購読を解除する
func (o *Observer) Close() {
	if o.unsub != nil {
		o.unsub()
		o.unsub = nil
	}
}
