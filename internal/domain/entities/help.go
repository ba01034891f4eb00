package entities

import (
	"encoding/json"
	"fmt"
	"slices"
)

// HelpType identifies a one-time answer help.
type HelpType string

const (
	HelpFiftyFifty HelpType = "fifty_fifty"
	HelpFriendCall HelpType = "friend_call"
	HelpAudience   HelpType = "audience_help"
)

// HelpTypes lists every help type in presentation order.
var HelpTypes = []HelpType{HelpFiftyFifty, HelpFriendCall, HelpAudience}

// ParseHelpType validates a help type name.
func ParseHelpType(s string) (HelpType, error) {
	t := HelpType(s)
	if !slices.Contains(HelpTypes, t) {
		return "", fmt.Errorf("%w: %q", ErrUnknownHelpType, s)
	}
	return t, nil
}

// HelpResult is the outcome of one help. Implemented by OptionReduction,
// BiasedHint and WeightedPoll only.
type HelpResult interface {
	HelpType() HelpType
	isHelpResult()
}

// OptionReduction leaves the correct key and one incorrect key selectable.
type OptionReduction struct {
	Keys []DisplayKey `json:"keys"`
}

func (OptionReduction) HelpType() HelpType { return HelpFiftyFifty }
func (OptionReduction) isHelpResult()      {}

// Contains reports whether k survived the reduction.
func (r OptionReduction) Contains(k DisplayKey) bool {
	return slices.Contains(r.Keys, k)
}

// BiasedHint is a friend's advisory suggestion of one key.
type BiasedHint struct {
	Friend string     `json:"friend"`
	Key    DisplayKey `json:"key"`
}

func (BiasedHint) HelpType() HelpType { return HelpFriendCall }
func (BiasedHint) isHelpResult()      {}

// Suggestion renders the hint as a sentence.
func (h BiasedHint) Suggestion() string {
	return fmt.Sprintf("%s считает, что это вариант %s", h.Friend, h.Key.Upper())
}

// WeightedPoll holds audience percentages per display key, summing to 100.
type WeightedPoll struct {
	Shares map[DisplayKey]int `json:"shares"`
}

func (WeightedPoll) HelpType() HelpType { return HelpAudience }
func (WeightedPoll) isHelpResult()      {}

// HelpRecord holds the helps applied to a position. Entries are only ever added.
type HelpRecord map[HelpType]HelpResult

// Used reports whether the help type was applied.
func (r HelpRecord) Used(t HelpType) bool {
	_, ok := r[t]
	return ok
}

// Add stores a result, failing if its type is already present.
func (r HelpRecord) Add(res HelpResult) error {
	t := res.HelpType()
	if r.Used(t) {
		return fmt.Errorf("%w: %s", ErrHelpAlreadyUsed, t)
	}
	r[t] = res
	return nil
}

func (r HelpRecord) OptionReduction() (OptionReduction, bool) {
	res, ok := r[HelpFiftyFifty].(OptionReduction)
	return res, ok
}

func (r HelpRecord) BiasedHint() (BiasedHint, bool) {
	res, ok := r[HelpFriendCall].(BiasedHint)
	return res, ok
}

func (r HelpRecord) WeightedPoll() (WeightedPoll, bool) {
	res, ok := r[HelpAudience].(WeightedPoll)
	return res, ok
}

// Clone returns a copy sharing the (immutable) results.
func (r HelpRecord) Clone() HelpRecord {
	out := make(HelpRecord, len(r))
	for t, res := range r {
		out[t] = res
	}
	return out
}

// MarshalHelpResult encodes a result for storage.
func MarshalHelpResult(res HelpResult) ([]byte, error) {
	return json.Marshal(res)
}

// UnmarshalHelpResult decodes a stored result of the given type.
func UnmarshalHelpResult(t HelpType, data []byte) (HelpResult, error) {
	var (
		res HelpResult
		err error
	)

	switch t {
	case HelpFiftyFifty:
		var v OptionReduction
		err = json.Unmarshal(data, &v)
		res = v
	case HelpFriendCall:
		var v BiasedHint
		err = json.Unmarshal(data, &v)
		res = v
	case HelpAudience:
		var v WeightedPoll
		err = json.Unmarshal(data, &v)
		res = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHelpType, t)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", t, err)
	}
	return res, nil
}
