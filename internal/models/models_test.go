package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswers_SetAndClear(t *testing.T) {
	var a Answers
	a.Set("Design", "1.1 X", "1.1.1", Score(0.5))
	a.Set("Design", "1.1 X", "1.1.2", Score(0))

	v, ok := a.Get("Design", "1.1 X", "1.1.2")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 2, a.Count())

	a.Set("Design", "1.1 X", "1.1.1", nil)
	a.Set("Design", "1.1 X", "1.1.2", nil)
	_, ok = a.Get("Design", "1.1 X", "1.1.1")
	assert.False(t, ok)
	assert.Equal(t, 0, a.Count())
	assert.Empty(t, a, "cleared entries are pruned")

	// clearing something never set is a no-op
	a.Set("Other", "x", "y", nil)
	assert.Empty(t, a)
}

func TestAnswers_CloneIsDeep(t *testing.T) {
	a := NewAnswers()
	a.Set("T", "I", "q", Score(1))

	c := a.Clone()
	c.Set("T", "I", "q", Score(0))

	v, _ := a.Get("T", "I", "q")
	assert.Equal(t, 1.0, v)
}

func TestAnswers_JSONLayout(t *testing.T) {
	a := NewAnswers()
	a.Set("Design", "1.1 X", "1.1.1", Score(0.5))

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Design":{"1.1 X":{"1.1.1":0.5}}}`, string(data))
}

func TestApiClient_HasPermission(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		active   bool
		required string
		want     bool
	}{
		{"exact", []string{"sessions:read"}, true, "sessions:read", true},
		{"prefix wildcard", []string{"sessions:*"}, true, "sessions:write", true},
		{"other prefix", []string{"history:*"}, true, "sessions:write", false},
		{"global wildcard", []string{"*"}, true, "history:read", true},
		{"inactive", []string{"*"}, false, "history:read", false},
		{"none", nil, true, "catalog:read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ApiClient{IsActive: tt.active, Permissions: tt.perms}
			assert.Equal(t, tt.want, c.HasPermission(tt.required))
		})
	}

	var nilClient *ApiClient
	assert.False(t, nilClient.HasPermission("catalog:read"))
	assert.True(t, AnonymousClient().HasPermission("sessions:write"))
}

func TestApiClient_MaskedApiKey(t *testing.T) {
	assert.Equal(t, "***", (&ApiClient{ApiKey: "short"}).MaskedApiKey())
	assert.Equal(t, "abcdefgh...", (&ApiClient{ApiKey: "abcdefghijkl"}).MaskedApiKey())
}

func TestSession_Touch(t *testing.T) {
	now := time.Now()
	s := &Session{Status: SessionActive, TTLSeconds: 60}
	s.Touch(now)

	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, now.Add(time.Minute), *s.ExpiresAt)
	assert.False(t, s.IsExpired())
	assert.Greater(t, s.TimeRemaining(), time.Duration(0))

	past := now.Add(-time.Second)
	s.ExpiresAt = &past
	assert.True(t, s.IsExpired())
	assert.Equal(t, time.Duration(0), s.TimeRemaining())
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	require.NoError(t, err)
	b, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 48)
	assert.NotEqual(t, a, b)
}

func TestAnswers_UnmarshalDropsNull(t *testing.T) {
	var a Answers
	require.NoError(t, json.Unmarshal([]byte(`{"Design":{"1.1 X":{"1.1.1":0,"1.1.2":null}},"Empty":{"x":{"y":null}}}`), &a))

	v, ok := a.Get("Design", "1.1 X", "1.1.1")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, ok = a.Get("Design", "1.1 X", "1.1.2")
	assert.False(t, ok)
	assert.NotContains(t, a, "Empty")
	assert.Equal(t, 1, a.Count())
}
