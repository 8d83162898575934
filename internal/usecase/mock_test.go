//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/i18n"
)

// =============================
// Repositories
// =============================

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Subscription

	SaveFunc         func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindRenewingFunc func(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Subscription, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{data: map[string]*model.Subscription{}}
}

func (r *MockSubscriptionRepo) Seed(subs ...*model.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range subs {
		cp := *s
		r.data[s.ID] = &cp
	}
}

func (r *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.data[s.ID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.data {
		if s.UserID == userID && (status == "" || s.Status == status) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MockSubscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MockSubscriptionRepo) FindRenewing(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Subscription, error) {
	if r.FindRenewingFunc != nil {
		return r.FindRenewingFunc(ctx, tx, from, to)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.data {
		if s.Status != model.SubscriptionStatusActive || s.NextBillingDate == nil {
			continue
		}
		if d := *s.NextBillingDate; !d.Before(from) && !d.After(to) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MockSubscriptionRepo) ListUserIDsWithActive(ctx context.Context, tx repository.Tx) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, s := range r.data {
		if s.Status == model.SubscriptionStatusActive && !seen[s.UserID] {
			seen[s.UserID] = true
			out = append(out, s.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ---- Mock BundleRepository ----

type MockBundleRepo struct {
	mu   sync.Mutex
	data map[string]*model.Bundle

	ListActiveFunc func(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error)
}

var _ repository.BundleRepository = (*MockBundleRepo)(nil)

func NewMockBundleRepo() *MockBundleRepo {
	return &MockBundleRepo{data: map[string]*model.Bundle{}}
}

func (r *MockBundleRepo) Save(ctx context.Context, tx repository.Tx, b *model.Bundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.data[b.ID] = &cp
	return nil
}

func (r *MockBundleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Bundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MockBundleRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error) {
	if r.ListActiveFunc != nil {
		return r.ListActiveFunc(ctx, tx)
	}
	all, _ := r.ListAll(ctx, tx)
	out := all[:0]
	for _, b := range all {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *MockBundleRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Bundle, 0, len(r.data))
	for _, b := range r.data {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MockBundleRepo) Deactivate(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.IsActive = false
	return nil
}

// ---- Mock CatalogRepository ----

type MockCatalogRepo struct {
	Entries     []*model.CatalogService
	ListAllFunc func(ctx context.Context, tx repository.Tx) ([]*model.CatalogService, error)
}

var _ repository.CatalogRepository = (*MockCatalogRepo)(nil)

func (r *MockCatalogRepo) Save(ctx context.Context, tx repository.Tx, s *model.CatalogService) error {
	r.Entries = append(r.Entries, s)
	return nil
}

func (r *MockCatalogRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CatalogService, error) {
	for _, e := range r.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockCatalogRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.CatalogService, error) {
	if r.ListAllFunc != nil {
		return r.ListAllFunc(ctx, tx)
	}
	return r.Entries, nil
}

// ---- Mock RecommendationRepository ----

type MockRecommendationRepo struct {
	mu     sync.Mutex
	byUser map[string][]*model.Recommendation

	SaveFunc func(ctx context.Context, tx repository.Tx, r *model.Recommendation) error
}

var _ repository.RecommendationRepository = (*MockRecommendationRepo)(nil)

func NewMockRecommendationRepo() *MockRecommendationRepo {
	return &MockRecommendationRepo{byUser: map[string][]*model.Recommendation{}}
}

func (m *MockRecommendationRepo) Save(ctx context.Context, tx repository.Tx, r *model.Recommendation) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.byUser[r.UserID] = append(m.byUser[r.UserID], &cp)
	return nil
}

func (m *MockRecommendationRepo) DeleteByUser(ctx context.Context, tx repository.Tx, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
	return nil
}

func (m *MockRecommendationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Recommendation(nil), m.byUser[userID]...), nil
}

// ---- Mock SignalRepository ----

type MockSignalRepo struct {
	mu   sync.Mutex
	data map[string]*model.DetectedSignal
}

var _ repository.SignalRepository = (*MockSignalRepo)(nil)

func NewMockSignalRepo() *MockSignalRepo {
	return &MockSignalRepo{data: map[string]*model.DetectedSignal{}}
}

func (r *MockSignalRepo) Save(ctx context.Context, tx repository.Tx, s *model.DetectedSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.UserID == s.UserID && existing.MessageID == s.MessageID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *s
	r.data[s.ID] = &cp
	return nil
}

func (r *MockSignalRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.DetectedSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MockSignalRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, status model.SignalStatus) ([]*model.DetectedSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.DetectedSignal{}
	for _, s := range r.data {
		if s.UserID == userID && (status == "" || s.Status == status) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out, nil
}

func (r *MockSignalRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.SignalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	return nil
}

// ---- Mock UsageRepository ----

type MockUsageRepo struct {
	mu   sync.Mutex
	data map[string]model.UsageStat
}

var _ repository.UsageRepository = (*MockUsageRepo)(nil)

func NewMockUsageRepo() *MockUsageRepo {
	return &MockUsageRepo{data: map[string]model.UsageStat{}}
}

func (r *MockUsageRepo) Save(ctx context.Context, tx repository.Tx, u *model.UsageStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[u.SubscriptionID] = *u
	return nil
}

func (r *MockUsageRepo) ListBySubscriptions(ctx context.Context, tx repository.Tx, ids []string) (map[string]model.UsageStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]model.UsageStat{}
	for _, id := range ids {
		if u, ok := r.data[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ---- Mock LinkCodeStore ----

type MockLinkCodes struct {
	mu    sync.Mutex
	codes map[string]string
	TTLs  map[string]time.Duration
	next  int

	IssueErr error
}

var _ repository.LinkCodeStore = (*MockLinkCodes)(nil)

func NewMockLinkCodes() *MockLinkCodes {
	return &MockLinkCodes{codes: map[string]string{}, TTLs: map[string]time.Duration{}}
}

func (m *MockLinkCodes) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if m.IssueErr != nil {
		return "", m.IssueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	code := fmt.Sprintf("code%d", m.next)
	m.codes[code] = userID
	m.TTLs[code] = ttl
	return code, nil
}

func (m *MockLinkCodes) Redeem(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.codes[code]
	if !ok {
		return "", domain.ErrNotFound
	}
	delete(m.codes, code)
	return id, nil
}

// ---- Mock ConnectionRepository ----

type MockConnectionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Connection
}

var _ repository.ConnectionRepository = (*MockConnectionRepo)(nil)

func NewMockConnectionRepo() *MockConnectionRepo {
	return &MockConnectionRepo{data: map[string]*model.Connection{}}
}

func connKey(userID string, p model.Provider) string { return userID + "|" + string(p) }

func (r *MockConnectionRepo) Save(ctx context.Context, tx repository.Tx, c *model.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.data[connKey(c.UserID, c.Provider)] = &cp
	return nil
}

func (r *MockConnectionRepo) Find(ctx context.Context, tx repository.Tx, userID string, p model.Provider) (*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[connKey(userID, p)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MockConnectionRepo) Delete(ctx context.Context, tx repository.Tx, userID string, p model.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[connKey(userID, p)]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, connKey(userID, p))
	return nil
}

// ---- Mock NotificationLogRepository ----

type MockNotificationLogRepo struct {
	mu      sync.Mutex
	entries map[string]struct{}

	ExistsFunc func(ctx context.Context, tx repository.Tx, subscriptionID, kind string, dueOn time.Time) (bool, error)
}

var _ repository.NotificationLogRepository = (*MockNotificationLogRepo)(nil)

func NewMockNotificationLogRepo() *MockNotificationLogRepo {
	return &MockNotificationLogRepo{entries: make(map[string]struct{})}
}

// makeKey is a helper to create a consistent key for the in-memory map.
func (m *MockNotificationLogRepo) makeKey(subscriptionID, kind string, dueOn time.Time) string {
	return fmt.Sprintf("%s:%s:%s", subscriptionID, kind, dueOn.UTC().Format("2006-01-02"))
}

func (m *MockNotificationLogRepo) Save(ctx context.Context, tx repository.Tx, subscriptionID, userID, kind string, dueOn time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.makeKey(subscriptionID, kind, dueOn)] = struct{}{}
	return nil
}

func (m *MockNotificationLogRepo) Exists(ctx context.Context, tx repository.Tx, subscriptionID, kind string, dueOn time.Time) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, tx, subscriptionID, kind, dueOn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[m.makeKey(subscriptionID, kind, dueOn)]
	return ok, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	Calls int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs fn without a real transaction.
func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	return fn(ctx, nil)
}

// ---- Mock Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ repository.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ErrOn[key]; err != nil {
		return "", err
	}
	if _, busy := l.held[key]; busy {
		return "", domain.ErrScanInProgress
	}
	token := fmt.Sprintf("tok-%s", key)
	l.held[key] = token
	return token, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// ---- Mock GuideCache ----

type MockGuideCache struct {
	mu   sync.Mutex
	data map[string]*model.CancellationGuide
	TTLs map[string]time.Duration
}

var _ repository.GuideCache = (*MockGuideCache)(nil)

func NewMockGuideCache() *MockGuideCache {
	return &MockGuideCache{data: map[string]*model.CancellationGuide{}, TTLs: map[string]time.Duration{}}
}

func (c *MockGuideCache) Get(ctx context.Context, service string) (*model.CancellationGuide, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.data[service]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func (c *MockGuideCache) Set(ctx context.Context, service string, g *model.CancellationGuide, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[service] = g
	c.TTLs[service] = ttl
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock TelegramBotAdapter ----

type SentButtons struct {
	ChatID int64
	Text   string
	Rows   [][]adapter.InlineButton
}

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []SentButtons

	SendButtonsFunc func(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	return m.SendButtons(ctx, chatID, text, nil)
}

func (m *MockTelegramBot) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if m.SendButtonsFunc != nil {
		if err := m.SendButtonsFunc(ctx, chatID, text, rows); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentButtons{ChatID: chatID, Text: text, Rows: rows})
	return nil
}

// ---- Mock AIServiceAdapter ----

type MockAI struct {
	Reply string
	Err   error
	Calls int
	Last  []adapter.Message

	Tokens     int // 0 counts one token per message
	CountErr   error
	CountCalls int
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

func (m *MockAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	m.CountCalls++
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	if m.Tokens > 0 {
		return m.Tokens, nil
	}
	return len(messages), nil
}

func (m *MockAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := m.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (m *MockAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	m.Calls++
	m.Last = messages
	if m.Err != nil {
		return "", adapter.Usage{}, m.Err
	}
	return m.Reply, adapter.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}, nil
}

// ---- Mock MailSource ----

type MockMailSource struct {
	Messages []model.MailMessage
	Err      error
	LastConn *model.Connection
	LastMax  int
}

var _ adapter.MailSource = (*MockMailSource)(nil)

func (m *MockMailSource) FetchMessages(ctx context.Context, conn *model.Connection, since time.Time, max int) ([]model.MailMessage, error) {
	m.LastConn, m.LastMax = conn, max
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Messages, nil
}

// ---- Mock UsageSource ----

type MockUsageSource struct {
	Stat model.UsageStat
	Err  error
}

var _ adapter.UsageSource = (*MockUsageSource)(nil)

func (m *MockUsageSource) RecentUsage(ctx context.Context, conn *model.Connection, since time.Time) (model.UsageStat, error) {
	return m.Stat, m.Err
}

// ---- Mock Cipher ----

// prefixCipher is reversible and visibly different from plaintext.
type prefixCipher struct{}

var _ adapter.Cipher = prefixCipher{}

func (prefixCipher) Encrypt(s string) (string, error) { return "enc:" + s, nil }
func (prefixCipher) Decrypt(s string) (string, error) {
	if len(s) < 4 || s[:4] != "enc:" {
		return "", fmt.Errorf("not encrypted: %q", s)
	}
	return s[4:], nil
}

// =============================
// Utilities
// =============================

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	testFS := fstest.MapFS{
		"locales/en.yaml": {Data: []byte(`
reminder_renewal: "%s renews on %s for %s %s."
reminder_renewal_today: "%s renews today for %s %s."
reminder_btn_cancel: "How to cancel"
reminder_btn_keep: "Keep it"
guide_system_prompt: "system"
guide_user_prompt: "How do I cancel %s?"
`)},
	}
	translator, err := i18n.NewTranslator(testFS, "en")
	if err != nil {
		panic(err)
	}
	return translator
}
