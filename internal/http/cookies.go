package http

import (
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// storedCookie is the on-disk form of one cookie.
type storedCookie struct {
	URL      string           `json:"url"`
	Name     string           `json:"name"`
	Value    string           `json:"value"`
	Path     string           `json:"path,omitempty"`
	Domain   string           `json:"domain,omitempty"`
	Expires  time.Time        `json:"expires,omitempty"`
	Secure   bool             `json:"secure,omitempty"`
	HttpOnly bool             `json:"http_only,omitempty"`
	SameSite nethttp.SameSite `json:"same_site,omitempty"`
}

func (s storedCookie) expired(now time.Time) bool {
	return !s.Expires.IsZero() && !s.Expires.After(now)
}

func (s storedCookie) cookie() *nethttp.Cookie {
	return &nethttp.Cookie{
		Name:     s.Name,
		Value:    s.Value,
		Path:     s.Path,
		Domain:   s.Domain,
		Expires:  s.Expires,
		Secure:   s.Secure,
		HttpOnly: s.HttpOnly,
		SameSite: s.SameSite,
	}
}

// PersistentJar is a cookie jar that can be saved to and restored from a
// file, so a login survives between CLI invocations. It implements
// http.CookieJar.
type PersistentJar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	path    string
	entries map[string]storedCookie
	now     func() time.Time
}

// LoadJar restores a jar from path. A missing file yields an empty jar.
func LoadJar(path string) (*PersistentJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	pj := &PersistentJar{
		jar:     jar,
		path:    path,
		entries: make(map[string]storedCookie),
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return pj, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie jar: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse cookie jar %s: %w", path, err)
	}

	now := pj.now()
	for _, s := range stored {
		if s.expired(now) {
			continue
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			continue
		}
		pj.jar.SetCookies(u, []*nethttp.Cookie{s.cookie()})
		pj.entries[entryKey(u, s.Name, s.Path)] = s
	}
	return pj, nil
}

func entryKey(u *url.URL, name, path string) string {
	return u.Host + "|" + name + "|" + path
}

// SetCookies implements http.CookieJar.
func (p *PersistentJar) SetCookies(u *url.URL, cookies []*nethttp.Cookie) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.jar.SetCookies(u, cookies)

	now := p.now()
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
	for _, c := range cookies {
		key := entryKey(u, c.Name, c.Path)
		s := storedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		}
		switch {
		case c.MaxAge < 0:
			delete(p.entries, key)
			continue
		case c.MaxAge > 0:
			s.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if s.expired(now) {
			delete(p.entries, key)
			continue
		}
		p.entries[key] = s
	}
}

// Cookies implements http.CookieJar.
func (p *PersistentJar) Cookies(u *url.URL) []*nethttp.Cookie {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jar.Cookies(u)
}

// Len reports how many live cookies the jar would persist.
func (p *PersistentJar) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	now := p.now()
	for _, s := range p.entries {
		if !s.expired(now) {
			n++
		}
	}
	return n
}

// Save writes live cookies to the jar's file with owner-only permissions.
func (p *PersistentJar) Save() error {
	p.mu.Lock()
	now := p.now()
	stored := make([]storedCookie, 0, len(p.entries))
	for _, s := range p.entries {
		if !s.expired(now) {
			stored = append(stored, s)
		}
	}
	p.mu.Unlock()

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmpPath := p.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookie jar: %w", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set cookie jar permissions: %w", err)
		}
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save cookie jar: %w", err)
	}
	return nil
}

// Clear forgets every cookie and removes the file.
func (p *PersistentJar) Clear() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.jar = jar
	p.entries = make(map[string]storedCookie)
	p.mu.Unlock()

	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cookie jar: %w", err)
	}
	return nil
}
