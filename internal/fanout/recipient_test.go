package fanout

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name   string
		raw    RecipientInput
		sender uint
		want   []uint
	}{
		{"comma string", ParseRecipients("2,3,4"), 1, []uint{2, 3, 4, 1}},
		{"spaces and blanks", ParseRecipients(" 2 , ,3,"), 1, []uint{2, 3, 1}},
		{"duplicates keep first position", ParseRecipients("3,2,3,2"), 1, []uint{3, 2, 1}},
		{"sender already listed", ParseRecipients("2,1,3"), 1, []uint{2, 1, 3}},
		{"empty string", ParseRecipients(""), 1, []uint{1}},
		{"nil input", nil, 5, []uint{5}},
		{"single id", RecipientInput{"9"}, 1, []uint{9, 1}},
		{"form value with commas", RecipientInput{"4,5", "6"}, 1, []uint{4, 5, 6, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.raw, tc.sender)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	_, err := Resolve(nil, 0)
	var invalid *InvalidRecipientError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "no recipients", invalid.Reason)

	_, err = Resolve(ParseRecipients("2,abc"), 1)
	require.ErrorAs(t, err, &invalid)

	_, err = Resolve(ParseRecipients("0"), 1)
	require.ErrorAs(t, err, &invalid)
}

func TestResolve_SenderExactlyOnceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		sender := uint(rng.Intn(6) + 1)
		n := rng.Intn(10)
		parts := make([]string, n)
		for j := range parts {
			parts[j] = strconv.Itoa(rng.Intn(6) + 1)
		}
		raw := ParseRecipients(strings.Join(parts, ","))

		got, err := Resolve(raw, sender)
		require.NoError(t, err)

		counts := map[uint]int{}
		for _, id := range got {
			counts[id]++
		}
		assert.Equal(t, 1, counts[sender])
		for id, c := range counts {
			assert.Equal(t, 1, c, "id %d repeated", id)
		}

		// first-seen order: got must be a subsequence of raw+sender in order of first appearance
		var firstSeen []uint
		seen := map[uint]bool{}
		for _, p := range append(parts, strconv.Itoa(int(sender))) {
			v, _ := strconv.Atoi(p)
			if !seen[uint(v)] {
				seen[uint(v)] = true
				firstSeen = append(firstSeen, uint(v))
			}
		}
		assert.Equal(t, firstSeen, got)
	}
}

func TestRecipientInput_UnmarshalJSON(t *testing.T) {
	cases := map[string]RecipientInput{
		`"2,3,4"`:       {"2", "3", "4"},
		`[2, 3]`:        {"2", "3"},
		`["2", 3, "4"]`: {"2", "3", "4"},
		`7`:             {"7"},
		`null`:          nil,
		`""`:            {},
		`[]`:            {},
	}
	for in, want := range cases {
		var got RecipientInput
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}

	var bad RecipientInput
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &bad))
}

func TestRecipientInput_AbsentVersusEmpty(t *testing.T) {
	var req struct {
		Recipients RecipientInput `json:"recipients"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.Nil(t, req.Recipients)

	for _, body := range []string{`{"recipients":""}`, `{"recipients":[]}`, `{"recipients":"  "}`} {
		req.Recipients = nil
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.NotNil(t, req.Recipients, body)

		got, err := Resolve(req.Recipients, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, got, body)
	}
}

func TestRecipientsOf(t *testing.T) {
	ids := []uint{7, 1}
	got, err := Resolve(RecipientsOf(ids), 1)
	require.NoError(t, err)
	assert.Equal(t, ids, got)
	assert.Empty(t, RecipientsOf(nil))
}
