package mem

import "sync"

var sentinelOnce sync.Once
var cowZero *Page
var guard *Page

func initSentinels() {
	cowZero = &Page{
		Attr: Attr{Read: true, Write: false, CoW: true, NonOwning: true, Cacheable: true},
		Data: make([]byte, PageSize), // all zero, shared, never mutated
	}
	guard = &Page{
		Attr: Attr{}, // all-deny
		Data: nil,
	}
}

// CoWZeroPage returns the process-wide, immutable, all-zeros sentinel
// page shared by every unmapped-but-readable address across every
// Memory instance. It is readable, not writable, and is_cow, and it
// never materializes: reads against it are served straight from its
// shared zero buffer.
func CoWZeroPage() *Page {
	sentinelOnce.Do(initSentinels)
	return cowZero
}

// GuardPage returns the process-wide, immutable, all-deny sentinel page
// installed at virtual page 0 to catch null-pointer dereferences.
func GuardPage() *Page {
	sentinelOnce.Do(initSentinels)
	return guard
}

// IsSentinel reports whether p is one of the two process-wide sentinel
// pages, which InstallSharedPage must never be allowed to silently
// replace.
func IsSentinel(p *Page) bool {
	sentinelOnce.Do(initSentinels)
	return p == cowZero || p == guard
}
