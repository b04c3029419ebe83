package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// resettableJar is a cookie jar that can be emptied in place, so the
// http.Client holding it never has to be swapped.
type resettableJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newJar() *resettableJar {
	j := &resettableJar{}
	j.Reset()
	return j
}

func (j *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

func (j *resettableJar) Reset() {
	// cookiejar.New only fails on a bad PublicSuffixList option.
	jar, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}
