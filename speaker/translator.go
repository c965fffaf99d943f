package speaker

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Phrase is one english→vietnamese dictionary entry.
type Phrase struct {
	English    string `yaml:"english"`
	Vietnamese string `yaml:"vietnamese"`
}

// defaultPhrases seeds the dictionary at session start. Order matters:
// substring matching is first-match-wins in insertion order.
var defaultPhrases = []Phrase{
	{"you have received", "Bạn đã nhận được"},
	{"payment received", "Đã nhận thanh toán"},
	{"transaction successful", "Giao dịch thành công"},
	{"account balance", "Số dư tài khoản"},
	{"new payment", "Thanh toán mới"},
	{"thank you", "Cảm ơn bạn"},
	{"hello", "Xin chào"},
	{"goodbye", "Tạm biệt"},
	{"connected", "Đã kết nối"},
	{"disconnected", "Đã ngắt kết nối"},
}

// Translator maps English phrase keys to Vietnamese strings. Matching is
// substring-based: the first inserted key found inside the input wins, so
// overlapping keys resolve deterministically by insertion order. Keys are
// lower-cased and NFC-normalized.
type Translator struct {
	mu      sync.RWMutex
	keys    []string          // insertion order, drives match precedence
	entries map[string]string // key → vietnamese
}

// NewTranslator creates a translator seeded with the built-in phrase set.
func NewTranslator() *Translator {
	t := &Translator{entries: make(map[string]string)}
	for _, p := range defaultPhrases {
		_ = t.AddPhrase(p.English, p.Vietnamese)
	}
	return t
}

// normalizeKey canonicalizes a phrase key. Vietnamese text arrives in mixed
// Unicode normal forms, so inputs and keys are both folded to NFC.
func normalizeKey(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Translate returns the Vietnamese value of the first dictionary key that is
// a substring of the input, or the input unchanged when no key matches.
func (t *Translator) Translate(input string) string {
	in := normalizeKey(input)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, k := range t.keys {
		if strings.Contains(in, k) {
			return t.entries[k]
		}
	}
	return input
}

// AddPhrase inserts or overwrites a dictionary entry. Both sides are trimmed
// first; a blank side fails with ErrEmptyPhrase and leaves the dictionary
// unchanged. Overwriting keeps the key's original match position.
func (t *Translator) AddPhrase(english, vietnamese string) error {
	english = strings.TrimSpace(english)
	vietnamese = strings.TrimSpace(vietnamese)
	if english == "" || vietnamese == "" {
		return ErrEmptyPhrase
	}

	key := normalizeKey(english)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = vietnamese
	return nil
}

// Phrases returns the dictionary in match order.
func (t *Translator) Phrases() []Phrase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Phrase, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, Phrase{English: k, Vietnamese: t.entries[k]})
	}
	return out
}

// Len returns the number of dictionary entries.
func (t *Translator) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}
