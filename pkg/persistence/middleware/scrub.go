package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
)

// Mask replaces scrubbed values.
const Mask = "***"

// Scrubbable field paths.
const (
	PathOTP        = "auth.otp"
	PathName       = "auth.details.name"
	PathMobile     = "auth.details.mobile"
	PathCodeSentTo = "auth.code_sent_to"
	PathLeadName   = "lead.name"
	PathLeadMobile = "lead.mobile"
)

// DefaultScrubPatterns masks the typed one-time password only.
var DefaultScrubPatterns = []string{`^auth\.otp$`}

type scrubMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// CompileScrubPatterns compiles field path patterns, naming the first
// invalid one by its index.
func CompileScrubPatterns(patternStrings []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("scrub pattern %d: %w", i, err)
		}
		patterns[i] = re
	}
	return patterns, nil
}

// NewScrubMiddleware creates a middleware that masks the auth fields whose
// path matches one of the patterns before the state is saved.
// Loaded states carry the mask in place of the original values.
func NewScrubMiddleware(patternStrings []string) (Middleware, error) {
	patterns, err := CompileScrubPatterns(patternStrings)
	if err != nil {
		return nil, err
	}
	return func(next ports.StateStore) ports.StateStore {
		return &scrubMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *scrubMiddleware) Unwrap() ports.StateStore { return m.next }

func (m *scrubMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	// Work on a copy so the caller's state keeps its values.
	cloned := state.Snapshot()

	m.mask(PathOTP, &cloned.Auth.OTP.OTP)
	m.mask(PathName, &cloned.Auth.Details.Name)
	m.mask(PathMobile, &cloned.Auth.Details.Mobile)
	m.mask(PathCodeSentTo, &cloned.Auth.CodeSentTo)
	if cloned.Lead != nil {
		m.mask(PathLeadName, &cloned.Lead.Name)
		m.mask(PathLeadMobile, &cloned.Lead.Mobile)
	}

	return m.next.Save(ctx, sessionID, cloned)
}

func (m *scrubMiddleware) mask(path string, value *string) {
	if *value == "" {
		return
	}
	for _, p := range m.patterns {
		if p.MatchString(path) {
			*value = Mask
			return
		}
	}
}

func (m *scrubMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *scrubMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *scrubMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
