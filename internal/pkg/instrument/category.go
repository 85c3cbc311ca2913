package instrument

import (
	"log/slog"
	"strings"

	"go.uber.org/atomic"
)

// Category tags a log line with the subsystem that produced it, so sinks can
// filter or route per category.
type Category string

const (
	CategorySystem  Category = "system"
	CategoryHTTP    Category = "http"
	CategoryAuth    Category = "auth"
	CategoryOTP     Category = "otp"
	CategorySweeper Category = "sweeper"
)

var knownCategories = []Category{CategorySystem, CategoryHTTP, CategoryAuth, CategoryOTP, CategorySweeper}

// ParseCategory maps a tag to its Category. Unknown or empty tags map to CategorySystem.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range knownCategories {
		if c == known {
			return c
		}
	}
	return CategorySystem
}

// CategoryRouter hands out one logger per Category. Every logger shares the
// same sink and differs only in its category attribute and minimum level.
type CategoryRouter struct {
	loggers map[Category]*slog.Logger
}

// NewCategoryRouter builds loggers for every known category on top of h.
// levels overrides the minimum level per category name; rootLevel applies otherwise.
func NewCategoryRouter(h slog.Handler, rootLevel slog.Level, levels map[string]string) *CategoryRouter {
	r := &CategoryRouter{loggers: make(map[Category]*slog.Logger, len(knownCategories))}
	for _, c := range knownCategories {
		lvl := rootLevel
		if raw, ok := levels[string(c)]; ok {
			lvl = parseLevel(raw, rootLevel)
		}
		r.loggers[c] = slog.New(&levelHandler{Handler: h, min: lvl}).With("category", string(c))
	}
	return r
}

// Logger returns the logger bound to c, falling back to the system logger.
func (r *CategoryRouter) Logger(c Category) *slog.Logger {
	if l, ok := r.loggers[c]; ok {
		return l
	}
	return r.loggers[CategorySystem]
}

var globalRouter atomic.Pointer[CategoryRouter]

// Log returns the process-wide logger for c. Before New has run it derives
// one from slog.Default.
func Log(c Category) *slog.Logger {
	if r := globalRouter.Load(); r != nil {
		return r.Logger(c)
	}
	return slog.Default().With("category", string(ParseCategory(string(c))))
}
