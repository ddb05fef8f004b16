package dispatch

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"
)

const defaultCacheSize = 10

type compiled struct {
	re  *regexp.Regexp
	err error
}

// patternCache - ограниченный кэш скомпилированных шаблонов вызова.
// Ошибки компиляции тоже кэшируются, чтобы не компилировать и не
// логировать их на каждое сообщение.
type patternCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	group singleflight.Group
}

func newPatternCache(size int) *patternCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	return &patternCache{cache: lru.New(size)}
}

func (c *patternCache) get(expr string) (*regexp.Regexp, error) {
	c.mu.Lock()
	v, ok := c.cache.Get(expr)
	c.mu.Unlock()
	if ok {
		e := v.(*compiled)
		return e.re, e.err
	}

	v, _, _ = c.group.Do(expr, func() (any, error) {
		e := compile(expr)
		c.mu.Lock()
		c.cache.Add(expr, e)
		c.mu.Unlock()
		return e, nil
	})
	e := v.(*compiled)
	return e.re, e.err
}

func (c *patternCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func compile(expr string) *compiled {
	re, err := regexp.Compile(expr)
	if err != nil {
		return &compiled{err: fmt.Errorf("invocation pattern %q: %w", expr, err)}
	}
	if re.SubexpIndex("alias") < 0 || re.SubexpIndex("argument") < 0 {
		return &compiled{err: fmt.Errorf("invocation pattern %q: %w", expr, ErrPatternGroups)}
	}
	return &compiled{re: re}
}

// ParseInvocation сопоставляет text с шаблоном re. ok=false - это не
// команда: нет совпадения или пустой alias. Пустой или пробельный
// аргумент превращается в "", остальные отдаются как есть.
func ParseInvocation(re *regexp.Regexp, text string) (alias, argument string, ok bool, err error) {
	ai, gi := re.SubexpIndex("alias"), re.SubexpIndex("argument")
	if ai < 0 || gi < 0 {
		return "", "", false, ErrPatternGroups
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", "", false, nil
	}
	alias = strings.TrimSpace(m[ai])
	if alias == "" {
		return "", "", false, nil
	}
	argument = m[gi]
	if strings.TrimSpace(argument) == "" {
		argument = ""
	}
	return alias, argument, true, nil
}
