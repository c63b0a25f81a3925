package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
	"github.com/klabs/account-service/internal/infra/security"
	"github.com/klabs/account-service/internal/repository"
)

// testHasher returns an argon2 hasher with deliberately cheap parameters.
func testHasher() *security.Argon2Hasher {
	return security.NewArgon2Hasher(security.Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

type mockAccountRepository struct {
	saveErr       error
	saveCalls     int
	savedAccounts []*domain.Account

	findByUUIDResult *domain.Account
	findByUUIDErr    error
	findByUUIDCalls  int
	findByUUIDLastID uuid.UUID

	findByEmailResult *domain.Account
	findByEmailErr    error
	findByEmailCalls  int
	findByEmailLast   string

	findByLoginResult *domain.Account
	findByLoginErr    error
	findByLoginCalls  int
	findByLoginLast   string

	findByOAuthResult       *domain.Account
	findByOAuthErr          error
	findByOAuthCalls        int
	findByOAuthLastProvider string
	findByOAuthLastUserID   string

	existsByEmailResult bool
	existsByEmailErr    error
	existsByEmailCalls  int

	existsByLoginResult bool
	existsByLoginErr    error
	existsByLoginCalls  int

	deleteErr    error
	deleteCalls  int
	deletedUUIDs []uuid.UUID
}

func (m *mockAccountRepository) Save(_ context.Context, account *domain.Account) error {
	m.saveCalls++
	cp := *account
	m.savedAccounts = append(m.savedAccounts, &cp)
	return m.saveErr
}

func (m *mockAccountRepository) FindByUUID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	m.findByUUIDCalls++
	m.findByUUIDLastID = id
	if m.findByUUIDResult != nil {
		cp := *m.findByUUIDResult
		return &cp, m.findByUUIDErr
	}
	return nil, m.findByUUIDErr
}

func (m *mockAccountRepository) FindByEmail(_ context.Context, email domain.Email) (*domain.Account, error) {
	m.findByEmailCalls++
	m.findByEmailLast = email.String()
	if m.findByEmailResult != nil {
		cp := *m.findByEmailResult
		return &cp, m.findByEmailErr
	}
	return nil, m.findByEmailErr
}

func (m *mockAccountRepository) FindByLogin(_ context.Context, login domain.Login) (*domain.Account, error) {
	m.findByLoginCalls++
	m.findByLoginLast = login.String()
	if m.findByLoginResult != nil {
		cp := *m.findByLoginResult
		return &cp, m.findByLoginErr
	}
	return nil, m.findByLoginErr
}

func (m *mockAccountRepository) FindByOAuthProvider(_ context.Context, providerName, providerUserID string) (*domain.Account, error) {
	m.findByOAuthCalls++
	m.findByOAuthLastProvider = providerName
	m.findByOAuthLastUserID = providerUserID
	if m.findByOAuthResult != nil {
		cp := *m.findByOAuthResult
		return &cp, m.findByOAuthErr
	}
	return nil, m.findByOAuthErr
}

func (m *mockAccountRepository) ExistsByEmail(context.Context, domain.Email) (bool, error) {
	m.existsByEmailCalls++
	return m.existsByEmailResult, m.existsByEmailErr
}

func (m *mockAccountRepository) ExistsByLogin(context.Context, domain.Login) (bool, error) {
	m.existsByLoginCalls++
	return m.existsByLoginResult, m.existsByLoginErr
}

func (m *mockAccountRepository) Delete(_ context.Context, account *domain.Account) error {
	m.deleteCalls++
	m.deletedUUIDs = append(m.deletedUUIDs, account.UUID)
	return m.deleteErr
}

func (m *mockAccountRepository) FindAccountsToDelete(context.Context, time.Time) ([]*domain.Account, error) {
	return nil, errors.New("unexpected call: FindAccountsToDelete")
}

type mockDeletedAccountRepository struct {
	saveErr        error
	saveCalls      int
	savedTombstone domain.DeletedAccount

	deleteErr    error
	deleteCalls  int
	deletedUUIDs []uuid.UUID

	findToPurgeResult []domain.DeletedAccount
	findToPurgeErr    error
	findToPurgeCalls  int

	existsByEmailResult bool
	existsByEmailErr    error
	existsByEmailCalls  int

	existsByLoginResult bool
	existsByLoginErr    error
	existsByLoginCalls  int
}

func (m *mockDeletedAccountRepository) Save(_ context.Context, tombstone domain.DeletedAccount) error {
	m.saveCalls++
	m.savedTombstone = tombstone
	return m.saveErr
}

func (m *mockDeletedAccountRepository) FindByOriginalUUID(context.Context, uuid.UUID) (*domain.DeletedAccount, error) {
	return nil, errors.New("unexpected call: FindByOriginalUUID")
}

func (m *mockDeletedAccountRepository) Delete(_ context.Context, tombstone domain.DeletedAccount) error {
	m.deleteCalls++
	m.deletedUUIDs = append(m.deletedUUIDs, tombstone.OriginalUUID)
	return m.deleteErr
}

func (m *mockDeletedAccountRepository) FindAccountsToPurge(context.Context, time.Time) ([]domain.DeletedAccount, error) {
	m.findToPurgeCalls++
	if m.findToPurgeErr != nil {
		return nil, m.findToPurgeErr
	}
	out := make([]domain.DeletedAccount, len(m.findToPurgeResult))
	copy(out, m.findToPurgeResult)
	return out, nil
}

func (m *mockDeletedAccountRepository) ExistsByOriginalEmail(context.Context, string) (bool, error) {
	m.existsByEmailCalls++
	return m.existsByEmailResult, m.existsByEmailErr
}

func (m *mockDeletedAccountRepository) ExistsByOriginalLogin(context.Context, string) (bool, error) {
	m.existsByLoginCalls++
	return m.existsByLoginResult, m.existsByLoginErr
}

type mockAuditLogRepository struct {
	saveErr   error
	saveCalls int
	savedLogs []domain.AuditLog
}

func (m *mockAuditLogRepository) Save(_ context.Context, log domain.AuditLog) error {
	m.saveCalls++
	m.savedLogs = append(m.savedLogs, log)
	return m.saveErr
}

func (m *mockAuditLogRepository) ListByAccount(context.Context, uuid.UUID, int) ([]domain.AuditLog, error) {
	return nil, errors.New("unexpected call: ListByAccount")
}

func (m *mockAuditLogRepository) lastAction() string {
	if len(m.savedLogs) == 0 {
		return ""
	}
	return m.savedLogs[len(m.savedLogs)-1].Action
}

type mockCache struct {
	codes       map[string]string
	codeTTLs    map[string]time.Duration
	saveCodeErr error

	values       map[string]string
	saveValueErr error

	getTTLErr error

	deleteCodeCalls  int
	deleteValueCalls int

	savedTokenTTLs    map[string]time.Duration
	savedTokenAccount map[string]string
	saveTokenErr      error

	isTokenValidResult bool
	isTokenValidErr    error
	isTokenValidCalls  int
	isTokenValidLastID string

	revokedTokens map[string]time.Duration
	revokeErr     error

	sessions       []port.SessionRecord
	sessionTTL     time.Duration
	saveSessionErr error

	activeSessionsResult []string
	activeSessionsErr    error
	activeSessionsCalls  int

	deleteSessionErr    error
	deleteSessionCalls  int
	deletedSessionID    string
	deletedSessionOwner string
}

func newMockCache() *mockCache {
	return &mockCache{
		codes:             make(map[string]string),
		codeTTLs:          make(map[string]time.Duration),
		values:            make(map[string]string),
		savedTokenTTLs:    make(map[string]time.Duration),
		savedTokenAccount: make(map[string]string),
		revokedTokens:     make(map[string]time.Duration),
	}
}

func (m *mockCache) SaveVerificationCode(_ context.Context, key, code string, ttl time.Duration) error {
	if m.saveCodeErr != nil {
		return m.saveCodeErr
	}
	m.codes[key] = code
	m.codeTTLs[key] = ttl
	return nil
}

func (m *mockCache) GetVerificationCode(_ context.Context, key string) (string, error) {
	code, ok := m.codes[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return code, nil
}

func (m *mockCache) DeleteVerificationCode(_ context.Context, key string) error {
	m.deleteCodeCalls++
	delete(m.codes, key)
	delete(m.codeTTLs, key)
	return nil
}

func (m *mockCache) GetTTL(_ context.Context, key string) (time.Duration, error) {
	if m.getTTLErr != nil {
		return 0, m.getTTLErr
	}
	ttl, ok := m.codeTTLs[key]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return ttl, nil
}

func (m *mockCache) SaveValue(_ context.Context, key, value string, _ time.Duration) error {
	if m.saveValueErr != nil {
		return m.saveValueErr
	}
	m.values[key] = value
	return nil
}

func (m *mockCache) GetValue(_ context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (m *mockCache) DeleteValue(_ context.Context, key string) error {
	m.deleteValueCalls++
	delete(m.values, key)
	return nil
}

func (m *mockCache) SaveToken(_ context.Context, tokenID, accountUUID string, ttl time.Duration) error {
	if m.saveTokenErr != nil {
		return m.saveTokenErr
	}
	m.savedTokenTTLs[tokenID] = ttl
	m.savedTokenAccount[tokenID] = accountUUID
	return nil
}

func (m *mockCache) IsTokenValid(_ context.Context, tokenID string) (bool, error) {
	m.isTokenValidCalls++
	m.isTokenValidLastID = tokenID
	return m.isTokenValidResult, m.isTokenValidErr
}

func (m *mockCache) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	m.revokedTokens[tokenID] = ttl
	return nil
}

func (m *mockCache) SaveSession(_ context.Context, record port.SessionRecord, ttl time.Duration) error {
	if m.saveSessionErr != nil {
		return m.saveSessionErr
	}
	m.sessions = append(m.sessions, record)
	m.sessionTTL = ttl
	return nil
}

func (m *mockCache) GetActiveSessions(context.Context, string) ([]string, error) {
	m.activeSessionsCalls++
	return m.activeSessionsResult, m.activeSessionsErr
}

func (m *mockCache) DeleteSession(_ context.Context, sessionID, accountUUID string) error {
	m.deleteSessionCalls++
	m.deletedSessionID = sessionID
	m.deletedSessionOwner = accountUUID
	return m.deleteSessionErr
}

type mockTokenIssuer struct {
	accessResult domain.Token
	accessErr    error
	accessCalls  int

	refreshResult domain.Token
	refreshErr    error
	refreshCalls  int

	parseResults map[string]domain.Token
	parseErrs    map[string]error
	parseCalls   int
}

func newMockTokenIssuer() *mockTokenIssuer {
	return &mockTokenIssuer{
		parseResults: make(map[string]domain.Token),
		parseErrs:    make(map[string]error),
	}
}

func (m *mockTokenIssuer) GenerateAccessToken(subject uuid.UUID) (domain.Token, error) {
	m.accessCalls++
	if m.accessErr != nil {
		return domain.Token{}, m.accessErr
	}
	if m.accessResult.ID != "" {
		return m.accessResult, nil
	}
	return domain.Token{
		ID:        "access-" + uuid.NewString(),
		Value:     "signed-access",
		Subject:   subject,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (m *mockTokenIssuer) GenerateRefreshToken(subject uuid.UUID) (domain.Token, error) {
	m.refreshCalls++
	if m.refreshErr != nil {
		return domain.Token{}, m.refreshErr
	}
	if m.refreshResult.ID != "" {
		return m.refreshResult, nil
	}
	return domain.Token{
		ID:        "refresh-" + uuid.NewString(),
		Value:     "signed-refresh",
		Subject:   subject,
		ExpiresAt: time.Now().Add(14 * 24 * time.Hour),
	}, nil
}

func (m *mockTokenIssuer) ParseAndValidateToken(raw string) (domain.Token, error) {
	m.parseCalls++
	if err, ok := m.parseErrs[raw]; ok {
		return domain.Token{}, err
	}
	token, ok := m.parseResults[raw]
	if !ok {
		return domain.Token{}, port.ErrInvalidToken
	}
	return token, nil
}

func (m *mockTokenIssuer) ExtractAccountUUID(string) (uuid.UUID, error) {
	return uuid.Nil, errors.New("unexpected call: ExtractAccountUUID")
}

type mockEmailSender struct {
	verificationCalls int
	verificationErr   error
	lastCodeEmail     string
	lastCode          string

	changeNotificationCalls int
	changeNotificationErr   error
	lastOldEmail            string
	lastNewEmail            string
}

func (m *mockEmailSender) SendVerificationCode(_ context.Context, email, code string) error {
	m.verificationCalls++
	m.lastCodeEmail = email
	m.lastCode = code
	return m.verificationErr
}

func (m *mockEmailSender) SendPasswordResetLink(context.Context, string, string) error {
	return errors.New("unexpected call: SendPasswordResetLink")
}

func (m *mockEmailSender) SendEmailChangeNotification(_ context.Context, oldEmail, newEmail string) error {
	m.changeNotificationCalls++
	m.lastOldEmail = oldEmail
	m.lastNewEmail = newEmail
	return m.changeNotificationErr
}

type mockEventPublisher struct {
	publishErr error
	published  []domain.DomainEvent

	publishBatchErr error
	batchCalls      int
}

func (m *mockEventPublisher) Publish(_ context.Context, event domain.DomainEvent) error {
	m.published = append(m.published, event)
	return m.publishErr
}

func (m *mockEventPublisher) PublishBatch(_ context.Context, events []domain.DomainEvent) error {
	m.batchCalls++
	m.published = append(m.published, events...)
	return m.publishBatchErr
}

func (m *mockEventPublisher) lastEventType() domain.EventType {
	if len(m.published) == 0 {
		return ""
	}
	return m.published[len(m.published)-1].EventType()
}
