package profile

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/okian/crewrate/internal/domain/model"
)

// DefaultCollectionKey is the namespaced key the profile collection is
// stored under.
const DefaultCollectionKey = "crewrate.profiles"

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// Decode parses one persisted profile. Fields of the wrong shape fall back
// to empty values, ratings without a usable score are dropped, and the
// result is normalized. Decode never fails.
func Decode(raw []byte, rules Rules) model.WorkerProfile {
	fields := object(raw)

	p := model.WorkerProfile{
		ID:            integer(fields["id"]),
		Name:          str(fields["name"]),
		Ratings:       ratings(fields["ratings"]),
		JobCategories: strs(fields["jobCategories"]),
		Strengths:     strs(fields["strengths"]),
		Weaknesses:    strs(fields["weaknesses"]),
	}

	var history map[string]json.RawMessage
	if json.Unmarshal(fields["categoryHistory"], &history) == nil {
		p.CategoryHistory = make(map[string][]model.Rating, len(history))
		for k, v := range history {
			p.CategoryHistory[k] = ratings(v)
		}
	}
	return Normalize(p, rules)
}

// DecodeCollection reads the profile list stored under key in a JSON
// object. Missing keys and malformed content yield an empty collection.
// Profiles without a name are dropped and profiles sharing a name are
// merged into the first one.
func DecodeCollection(raw []byte, key string, rules Rules) []model.WorkerProfile {
	out := []model.WorkerProfile{}

	var items []json.RawMessage
	if json.Unmarshal(object(raw)[key], &items) != nil {
		return out
	}
	for _, item := range items {
		p := Decode(item, rules)
		if NameKey(p.Name) == "" {
			continue
		}
		if i := indexOf(out, p.Name); i >= 0 {
			out[i] = merge(out[i], p, rules)
			continue
		}
		out = append(out, p)
	}
	return out
}

// EncodeCollection is the inverse of DecodeCollection.
func EncodeCollection(profiles []model.WorkerProfile, key string) ([]byte, error) {
	if profiles == nil {
		profiles = []model.WorkerProfile{}
	}
	return json.MarshalIndent(map[string][]model.WorkerProfile{key: profiles}, "", "  ")
}

func merge(a, b model.WorkerProfile, rules Rules) model.WorkerProfile {
	m := clone(a)
	m.Ratings = append(m.Ratings, b.Ratings...)
	for k, v := range b.CategoryHistory {
		m.CategoryHistory[k] = append(m.CategoryHistory[k], v...)
	}
	m.JobCategories = append(m.JobCategories, b.JobCategories...)
	m.Strengths = append(m.Strengths, b.Strengths...)
	m.Weaknesses = append(m.Weaknesses, b.Weaknesses...)
	return Normalize(m, rules)
}

func object(raw json.RawMessage) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return map[string]json.RawMessage{}
	}
	return m
}

func ratings(raw json.RawMessage) []model.Rating {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return []model.Rating{}
	}
	out := make([]model.Rating, 0, len(items))
	for _, item := range items {
		if r, ok := rating(item); ok {
			out = append(out, r)
		}
	}
	return out
}

func rating(raw json.RawMessage) (model.Rating, bool) {
	fields := object(raw)
	score, ok := number(fields["score"])
	if !ok {
		return model.Rating{}, false
	}
	return model.Rating{
		WorkerName: str(fields["workerName"]),
		Category:   str(fields["category"]),
		Score:      score,
		Reviewer:   str(fields["reviewer"]),
		Note:       str(fields["note"]),
		RatedAt:    timestamp(fields["ratedAt"]),
	}, true
}

// ParseScore accepts a JSON number or a string holding one.
func ParseScore(raw json.RawMessage) (float64, bool) {
	return number(raw)
}

func number(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, finite(f)
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, finite(f)
}

func integer(raw json.RawMessage) int64 {
	f, ok := number(raw)
	if !ok {
		return 0
	}
	return int64(f)
}

func str(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func strs(raw json.RawMessage) []string {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

func timestamp(raw json.RawMessage) time.Time {
	s := strings.TrimSpace(str(raw))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
