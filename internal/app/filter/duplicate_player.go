package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/loungeclock/internal/domain/station"
)

var (
	nonDigits  = regexp.MustCompile(`\D`)
	whitespace = regexp.MustCompile(`\s+`)
)

// DuplicatePlayerFilter rejects a player who already holds an active or
// paused station. Players are matched by phone number when both sides have
// one, otherwise by normalized name.
type DuplicatePlayerFilter struct{}

// NewDuplicatePlayerFilter creates a new duplicate player filter.
func NewDuplicatePlayerFilter() *DuplicatePlayerFilter {
	return &DuplicatePlayerFilter{}
}

// Name returns the filter name.
func (f *DuplicatePlayerFilter) Name() string {
	return "duplicate_player_filter"
}

// Description returns the filter description.
func (f *DuplicatePlayerFilter) Description() string {
	return "Rejects a player who is already on another station"
}

// ReturnCodes returns possible return codes.
func (f *DuplicatePlayerFilter) ReturnCodes() []string {
	return []string{"player_already_playing"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicatePlayerFilter) ValidateConfig(map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the player is already on the board.
func (f *DuplicatePlayerFilter) Check(_ context.Context, req Request, board []station.View) Result {
	phone := normalizePhone(req.Phone)
	name := normalizeName(req.PlayerName)

	for _, v := range board {
		if !v.Status.Occupied() {
			continue
		}
		other := normalizePhone(v.Phone)
		if phone != "" && other != "" {
			if phone == other {
				return Reject("player_already_playing")
			}
			continue
		}
		if name != "" && name == normalizeName(v.PlayerName) {
			return Reject("player_already_playing")
		}
	}
	return Accept()
}

// normalizePhone keeps the last ten digits so "+91 98450-00000" and
// "9845000000" match.
func normalizePhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

func normalizeName(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}

func init() {
	Register("duplicate_player_filter", func() Filter {
		return &DuplicatePlayerFilter{}
	})
}
