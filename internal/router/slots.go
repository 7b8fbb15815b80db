package router

import (
	"strings"
)

// ExtractSlots resolves a candidate's raw captures into the typed argument
// map used for command rendering. Every slot in the intent's schema is
// considered: captured values are trimmed and coerced to the declared type,
// uncaptured slots fall back to their default, and a required slot with
// neither capture nor default fails validation. A captured value that is
// empty after trimming counts as missing. Exact-phrase matches carry no
// captures, so they resolve to defaults only.
func ExtractSlots(cand Candidate) (map[string]interface{}, error) {
	in := cand.Intent
	args := make(map[string]interface{}, len(in.ArgsSchema))

	for slot, spec := range in.ArgsSchema {
		raw, captured := "", false
		if cand.Kind == MatchPattern {
			raw, captured = cand.RawSlots[slot]
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			captured = false
		}

		if !captured {
			if spec.Default != nil {
				v, err := spec.CoerceDefault(spec.Default)
				if err != nil {
					return nil, &SlotValidationError{IntentID: in.ID, Slot: slot, Reason: err.Error()}
				}
				args[slot] = v
				continue
			}
			if spec.Required {
				return nil, &SlotValidationError{IntentID: in.ID, Slot: slot, Reason: "required slot not captured"}
			}
			continue
		}

		v, err := spec.Coerce(raw)
		if err != nil {
			return nil, &SlotValidationError{IntentID: in.ID, Slot: slot, Reason: err.Error()}
		}
		args[slot] = v
	}
	return args, nil
}
