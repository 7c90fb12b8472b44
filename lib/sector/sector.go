// Package sector resolves the free-text sector labels coming out of the
// parish's tables (codes, names, branches, denormalized class names) to
// the program's four canonical sectors.
package sector

import (
	"strings"

	"tntt-backend/lib/textutil"
)

type Sector struct {
	// canonical uppercase code, e.g. "CHIEN"
	Key   string
	Label string
	// sort priority: 0-3 for the known sectors, >=900 for ad-hoc ones
	Order int
}

const adHocOrder = 900

var (
	Chien = Sector{Key: "CHIEN", Label: "Chiên", Order: 0}
	Au    = Sector{Key: "AU", Label: "Ấu", Order: 1}
	Thieu = Sector{Key: "THIEU", Label: "Thiếu", Order: 2}
	Nghia = Sector{Key: "NGHIA", Label: "Nghĩa", Order: 3}
)

// Known lists the four canonical sectors in display order.
func Known() []Sector {
	return []Sector{Chien, Au, Thieu, Nghia}
}

// Match tokens in resolution priority order. NGHIA and THIEU must be
// tested before AU: "AU" is short enough to appear inside other
// normalized tokens, so it only gets to match once the longer tokens
// have been ruled out. Do not reorder.
var matchPriority = []Sector{Chien, Nghia, Thieu, Au}

// Resolve maps candidate labels to a sector. Candidates are tested in
// the order given, so callers put the most authoritative field first
// (explicit code before free-text name before class name). The first
// candidate containing a known token wins. When nothing matches, the
// first non-empty candidate becomes an ad-hoc sector; when every
// candidate is empty, Resolve returns nil.
func Resolve(candidates ...string) *Sector {
	firstNonEmpty := ""
	for _, candidate := range candidates {
		normalized := textutil.NormalizeName(candidate)
		if normalized == "" {
			continue
		}
		if firstNonEmpty == "" {
			firstNonEmpty = candidate
		}
		for _, known := range matchPriority {
			if strings.Contains(normalized, known.Key) {
				s := known
				return &s
			}
		}
	}
	if firstNonEmpty == "" {
		return nil
	}
	return &Sector{
		Key:   textutil.NormalizeName(firstNonEmpty),
		Label: strings.TrimSpace(firstNonEmpty),
		Order: adHocOrder,
	}
}

// IsAdHoc reports whether s was built from an unrecognized label.
func (s Sector) IsAdHoc() bool {
	return s.Order >= adHocOrder
}
