package notification

import (
	"context"
	"sync"
)

// SentNotice is a notice captured by MockNotifier.
type SentNotice struct {
	Type     NoticeType
	Data     NotificationData
	Template NoticeTemplate
}

// MockNotifier records notices instead of delivering them. Err, when set, is
// returned from every Send.
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentNotice
	Err  error
}

func (m *MockNotifier) Send(ctx context.Context, noticeType NoticeType, notification NotificationData, tmpl NoticeTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentNotice{Type: noticeType, Data: notification, Template: tmpl})
	return nil
}

func (m *MockNotifier) Sent() []SentNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotice(nil), m.sent...)
}

// Last returns the most recent notice of the given type.
func (m *MockNotifier) Last(noticeType NoticeType) (SentNotice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Type == noticeType {
			return m.sent[i], true
		}
	}
	return SentNotice{}, false
}
