package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gfauth/internal/auth"
	"gfauth/internal/logging"
	"gfauth/internal/transport"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAccounts(t *testing.T) {
	path := writeFile(t, "accounts.txt", `# main accounts
a@example.com secret1
b@example.com secret2 identities/b.json

A@example.com duplicate
`)

	accounts, err := LoadAccounts(path)
	require.NoError(t, err)
	assert.Equal(t, []Account{
		{Email: "a@example.com", Password: "secret1"},
		{Email: "b@example.com", Password: "secret2", Identity: "identities/b.json"},
	}, accounts)
}

func TestLoadAccountsErrors(t *testing.T) {
	_, err := LoadAccounts(writeFile(t, "accounts.txt", "only-email\n"))
	assert.ErrorContains(t, err, ":1: want")

	_, err = LoadAccounts(writeFile(t, "accounts.txt", "# empty\n"))
	assert.ErrorContains(t, err, "no accounts found")

	_, err = LoadAccounts(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type loginRecorder struct {
	mu      sync.Mutex
	proxies map[string][]string
}

func (r *loginRecorder) record(email, proxy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proxies == nil {
		r.proxies = make(map[string][]string)
	}
	r.proxies[email] = append(r.proxies[email], proxy)
}

func TestSchedulerRun(t *testing.T) {
	rec := &loginRecorder{}
	login := func(_ context.Context, account Account, proxy string, _ logging.Logger) (uuid.UUID, error) {
		rec.record(account.Email, proxy)
		if account.Password == "wrong" {
			return uuid.Nil, &auth.UnexpectedStatusError{Status: 403}
		}
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(account.Email)), nil
	}

	accounts := []Account{
		{Email: "a@example.com", Password: "p"},
		{Email: "b@example.com", Password: "wrong"},
		{Email: "c@example.com", Password: "p"},
	}

	s := NewScheduler(Config{Workers: 2, MaxRetries: 2}, login, nil, nil)
	results := s.Run(context.Background(), accounts)
	require.Len(t, results, 3)

	sort.Slice(results, func(i, j int) bool { return results[i].Account.Email < results[j].Account.Email })
	assert.NoError(t, results[0].Err)
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceURL, []byte("a@example.com")), results[0].Token)
	assert.True(t, auth.IsInvalidCredentials(results[1].Err))
	assert.NoError(t, results[2].Err)

	assert.Len(t, rec.proxies["b@example.com"], 1, "non-retryable errors are not retried")
	assert.Equal(t, []string{""}, rec.proxies["a@example.com"])
}

func TestSchedulerRetriesWithNextProxy(t *testing.T) {
	pool, _, err := transport.LoadProxyPool(writeFile(t, "proxies.txt", "1.1.1.1:80\n2.2.2.2:80\n"))
	require.NoError(t, err)

	rec := &loginRecorder{}
	calls := 0
	login := func(_ context.Context, account Account, proxy string, _ logging.Logger) (uuid.UUID, error) {
		rec.record(account.Email, proxy)
		calls++
		if calls < 3 {
			return uuid.Nil, errors.New("read tcp: connection reset by peer")
		}
		return uuid.New(), nil
	}

	s := NewScheduler(Config{Workers: 1, MaxRetries: 3}, login, pool, nil)
	results := s.Run(context.Background(), []Account{{Email: "a@example.com", Password: "p"}})

	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, []string{"http://1.1.1.1:80", "http://2.2.2.2:80", "http://1.1.1.1:80"}, rec.proxies["a@example.com"])
}

func TestSchedulerGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	login := func(context.Context, Account, string, logging.Logger) (uuid.UUID, error) {
		calls++
		return uuid.Nil, errors.New("dial tcp: i/o timeout")
	}

	s := NewScheduler(Config{Workers: 1, MaxRetries: 2}, login, nil, nil)
	results := s.Run(context.Background(), []Account{{Email: "a@example.com", Password: "p"}})

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Equal(t, 3, calls)
}

func TestSchedulerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	login := func(context.Context, Account, string, logging.Logger) (uuid.UUID, error) {
		return uuid.New(), nil
	}

	accounts := make([]Account, 50)
	for i := range accounts {
		accounts[i] = Account{Email: uuid.NewString(), Password: "p"}
	}

	s := NewScheduler(Config{Workers: 2}, login, nil, nil)
	results := s.Run(ctx, accounts)
	assert.Less(t, len(results), len(accounts))
}
