package models

import (
	"encoding/json"
	"fmt"
)

const unlimitedLiteral = "unlimited"

// Credits is either Unlimited or Remaining(n). It never collapses to a
// sentinel integer: on the wire it is a number or the string "unlimited".
type Credits struct {
	unlimited bool
	remaining int
}

func Unlimited() Credits {
	return Credits{unlimited: true}
}

// Remaining floors negative counts at zero.
func Remaining(n int) Credits {
	if n < 0 {
		n = 0
	}
	return Credits{remaining: n}
}

func (c Credits) IsUnlimited() bool {
	return c.unlimited
}

// Count returns the remaining credits and false for unlimited balances.
func (c Credits) Count() (int, bool) {
	if c.unlimited {
		return 0, false
	}
	return c.remaining, true
}

func (c Credits) String() string {
	if c.unlimited {
		return unlimitedLiteral
	}
	return fmt.Sprintf("%d", c.remaining)
}

func (c Credits) MarshalJSON() ([]byte, error) {
	if c.unlimited {
		return json.Marshal(unlimitedLiteral)
	}
	return json.Marshal(c.remaining)
}

func (c *Credits) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != unlimitedLiteral {
			return fmt.Errorf("invalid credits value %q", s)
		}
		*c = Unlimited()
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid credits value: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("credits cannot be negative: %d", n)
	}
	*c = Remaining(n)
	return nil
}
