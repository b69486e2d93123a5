package fanout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// InvalidRecipientError reports recipient input that cannot produce a fan-out set.
type InvalidRecipientError struct {
	Reason string
}

func (e *InvalidRecipientError) Error() string {
	return "invalid recipients: " + e.Reason
}

// RecipientInput is the raw recipient specification as it arrives on the wire:
// a single id, a comma separated string, or a list of ids.
type RecipientInput []string

// ParseRecipients splits a comma separated form value. A blank value is an
// explicit empty list, not a missing one.
func ParseRecipients(s string) RecipientInput {
	if strings.TrimSpace(s) == "" {
		return RecipientInput{}
	}
	return RecipientInput(strings.Split(s, ","))
}

func (r *RecipientInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ParseRecipients(s)
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(RecipientInput, 0, len(items))
		for _, item := range items {
			var one RecipientInput
			if err := one.UnmarshalJSON(item); err != nil {
				return err
			}
			out = append(out, one...)
		}
		*r = out
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("recipients: unsupported value %s", string(data))
		}
		*r = RecipientInput{n.String()}
		return nil
	}
}

// Resolve normalizes raw into an ordered, duplicate free set of user ids. The
// sender is always part of the set so the action shows up in their own stream.
func Resolve(raw RecipientInput, senderID uint) ([]uint, error) {
	ids := make([]uint, 0, len(raw)+1)
	for _, chunk := range raw {
		for _, token := range strings.Split(chunk, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			n, err := strconv.ParseUint(token, 10, 64)
			if err != nil || n == 0 {
				return nil, &InvalidRecipientError{Reason: fmt.Sprintf("%q is not a user id", token)}
			}
			ids = append(ids, uint(n))
		}
	}
	if senderID != 0 {
		ids = append(ids, senderID)
	}

	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	if len(out) == 0 {
		return nil, &InvalidRecipientError{Reason: "no recipients"}
	}
	return out, nil
}

// RecipientsOf turns an already resolved set back into recipient input.
func RecipientsOf(ids []uint) RecipientInput {
	out := make(RecipientInput, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatUint(uint64(id), 10))
	}
	return out
}
