// Package lists implements the allow/deny list membership tests.
//
// Entries are either full email addresses or bare domains, configured as
// newline-delimited text. An email matches a list when either the full
// address or its domain is present.
package lists

import (
	"sort"
	"strings"
	"sync"
)

// Checker answers whitelist/blacklist membership questions. Safe for
// concurrent use; admin endpoints may mutate the lists at runtime.
type Checker struct {
	mu               sync.RWMutex
	whitelist        map[string]struct{}
	blacklist        map[string]struct{}
	whitelistEnabled bool
	blacklistEnabled bool
}

// New builds a Checker from the two newline-delimited configuration blocks.
func New(whitelist, blacklist string, whitelistEnabled, blacklistEnabled bool) *Checker {
	return &Checker{
		whitelist:        parse(whitelist),
		blacklist:        parse(blacklist),
		whitelistEnabled: whitelistEnabled,
		blacklistEnabled: blacklistEnabled,
	}
}

// parse splits a newline-delimited list, trims, case-folds and drops blanks.
func parse(raw string) map[string]struct{} {
	entries := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		entry := strings.ToLower(strings.TrimSpace(line))
		if entry == "" {
			continue
		}
		entries[entry] = struct{}{}
	}
	return entries
}

// Domain returns the part of email after '@', empty if there is none.
func Domain(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

func (c *Checker) IsWhitelisted(email string) bool {
	if !c.whitelistEnabled {
		return false
	}
	return c.matches(c.whitelist, email)
}

func (c *Checker) IsBlacklisted(email string) bool {
	if !c.blacklistEnabled {
		return false
	}
	return c.matches(c.blacklist, email)
}

func (c *Checker) matches(list map[string]struct{}, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))

	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := list[email]; ok {
		return true
	}
	if domain := Domain(email); domain != "" {
		if _, ok := list[domain]; ok {
			return true
		}
	}
	return false
}

// ListType selects which list an admin operation targets.
type ListType string

const (
	Whitelist ListType = "whitelist"
	Blacklist ListType = "blacklist"
)

func (c *Checker) pick(lt ListType) map[string]struct{} {
	if lt == Whitelist {
		return c.whitelist
	}
	return c.blacklist
}

// Add inserts an entry (email or bare domain). Returns false if already present.
func (c *Checker) Add(lt ListType, value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.pick(lt)
	if _, ok := list[value]; ok {
		return false
	}
	list[value] = struct{}{}
	return true
}

// Remove deletes an entry. Returns false if it was not present.
func (c *Checker) Remove(lt ListType, value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))

	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.pick(lt)
	if _, ok := list[value]; !ok {
		return false
	}
	delete(list, value)
	return true
}

// Entries returns a sorted snapshot of a list for admin display.
func (c *Checker) Entries(lt ListType) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.pick(lt)
	out := make([]string, 0, len(list))
	for entry := range list {
		out = append(out, entry)
	}
	sort.Strings(out)
	return out
}
