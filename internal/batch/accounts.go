package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Account is one login to perform. An empty Identity means the configured
// default identity file.
type Account struct {
	Email    string
	Password string
	Identity string
}

// LoadAccounts reads accounts, one per line as
//
//	email password [identity.json]
//
// Blank lines and lines starting with # are skipped, and repeated emails are
// dropped case-insensitively.
func LoadAccounts(filename string) ([]Account, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts file: %w", err)
	}
	defer file.Close()

	seen := make(map[string]bool)
	var accounts []Account

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("%s:%d: want \"email password [identity]\", got %d fields", filename, lineNum, len(fields))
		}

		account := Account{Email: fields[0], Password: fields[1]}
		if len(fields) == 3 {
			account.Identity = fields[2]
		}

		lower := strings.ToLower(account.Email)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		accounts = append(accounts, account)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading accounts file: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found in %s", filename)
	}
	return accounts, nil
}
