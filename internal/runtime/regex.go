// Package runtime provides the regex cache and the resource lifecycle
// manager used by the interpreter.
package runtime

import (
	"github.com/coregx/coregex"
)

// RegexConfig selects the matching semantics.
type RegexConfig struct {
	// POSIX picks the leftmost-longest match, as ERE requires. Without it
	// the leftmost-first (Perl) match is used.
	POSIX bool
}

// Regex is a compiled pattern. Dot matches newline, since a record may
// span lines when RS is not "\n".
type Regex struct {
	*coregex.Regexp
	source string
	posix  bool
}

// Compile compiles pattern with POSIX semantics.
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, RegexConfig{POSIX: true})
}

// CompileWithConfig compiles pattern with the semantics in config.
func CompileWithConfig(pattern string, config RegexConfig) (*Regex, error) {
	re, err := coregex.Compile("(?s)" + pattern)
	if err != nil {
		return nil, err
	}
	if config.POSIX {
		re.Longest()
	}
	return &Regex{Regexp: re, source: pattern, posix: config.POSIX}, nil
}

// MustCompile is Compile for patterns known to be valid.
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic("runtime: " + err.Error())
	}
	return re
}

// Pattern is the source the regex was compiled from.
func (r *Regex) Pattern() string { return r.source }

// IsPOSIX reports whether the regex picks leftmost-longest matches.
func (r *Regex) IsPOSIX() bool { return r.posix }

// RegexCache keeps up to a fixed number of compiled dynamic regexes and
// drops the least recently used one when full. It belongs to one
// interpreter and is not safe for concurrent use.
type RegexCache struct {
	config  RegexConfig
	limit   int
	clock   uint64
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	re   *Regex
	used uint64
}

// NewRegexCache returns a POSIX cache holding up to limit regexes.
func NewRegexCache(limit int) *RegexCache {
	return NewRegexCacheWithConfig(limit, RegexConfig{POSIX: true})
}

// NewRegexCacheWithConfig returns a cache whose regexes use config. A
// limit below one means 100.
func NewRegexCacheWithConfig(limit int, config RegexConfig) *RegexCache {
	if limit < 1 {
		limit = 100
	}
	return &RegexCache{config: config, limit: limit, entries: make(map[string]*cacheEntry, limit)}
}

// Get returns the compiled form of pattern. A pattern that fails to
// compile is not cached.
func (c *RegexCache) Get(pattern string) (*Regex, error) {
	c.clock++
	if e, ok := c.entries[pattern]; ok {
		e.used = c.clock
		return e.re, nil
	}

	re, err := CompileWithConfig(pattern, c.config)
	if err != nil {
		return nil, err
	}
	if len(c.entries) >= c.limit {
		c.evict()
	}
	c.entries[pattern] = &cacheEntry{re: re, used: c.clock}
	return re, nil
}

// evict drops the entry that was used longest ago.
func (c *RegexCache) evict() {
	var victim string
	oldest := c.clock
	for src, e := range c.entries {
		if e.used <= oldest {
			victim, oldest = src, e.used
		}
	}
	delete(c.entries, victim)
}

// Len is the number of cached regexes.
func (c *RegexCache) Len() int { return len(c.entries) }

// Config is the configuration new regexes are compiled with.
func (c *RegexCache) Config() RegexConfig { return c.config }
