package transport

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
)

var ErrInvalidProxy = errors.New("invalid proxy")

// ParseProxy normalises a proxy string and returns it together with a
// credential-free form for logging. Supported formats:
//   - ip:port:username:password
//   - ip:port
//   - http(s)://username:password@ip:port
//   - http(s)://ip:port
func ParseProxy(line string) (proxyURL, display string, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidProxy)
	}

	if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
		parsed, err := url.Parse(line)
		if err != nil || parsed.Host == "" {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidProxy, line)
		}

		// Most proxies expect plain http for CONNECT.
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			proxyURL = fmt.Sprintf("http://%s:%s@%s", parsed.User.Username(), password, parsed.Host)
		} else {
			proxyURL = fmt.Sprintf("http://%s", parsed.Host)
		}
		return proxyURL, parsed.Host, nil
	}

	parts := strings.Split(line, ":")
	switch len(parts) {
	case 2:
		host, port := parts[0], parts[1]
		return fmt.Sprintf("http://%s:%s", host, port), host + ":" + port, nil
	case 4:
		host, port, user, pass := parts[0], parts[1], parts[2], parts[3]
		return fmt.Sprintf("http://%s:%s@%s:%s", user, pass, host, port), host + ":" + port, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidProxy, line)
	}
}

// ProxyPool hands out proxies round-robin.
type ProxyPool struct {
	proxies []string
	display []string
	index   int
	mu      sync.Mutex
}

// LoadProxyPool reads one proxy per line. Blank lines and lines starting
// with # are skipped; unparsable lines are reported back as skipped.
func LoadProxyPool(filename string) (pool *ProxyPool, skipped int, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open proxy file: %w", err)
	}
	defer file.Close()

	pool = &ProxyPool{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		proxyURL, disp, err := ParseProxy(line)
		if err != nil {
			skipped++
			continue
		}
		pool.proxies = append(pool.proxies, proxyURL)
		pool.display = append(pool.display, disp)
	}

	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("error reading proxy file: %w", err)
	}
	if len(pool.proxies) == 0 {
		return nil, skipped, fmt.Errorf("no valid proxies found in %s", filename)
	}
	return pool, skipped, nil
}

// Next returns the next proxy and its display form.
func (p *ProxyPool) Next() (proxyURL, display string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	proxyURL, display = p.proxies[p.index], p.display[p.index]
	p.index = (p.index + 1) % len(p.proxies)
	return proxyURL, display
}

func (p *ProxyPool) Count() int {
	return len(p.proxies)
}
