package records

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a reference to another Stripe object. Stripe sends either the bare
// id or, when the field was expanded, the whole object; both decode to the
// id.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case string(data) == "null":
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*id = ID(obj.ID)
		return nil
	default:
		return fmt.Errorf("invalid object reference %s", data)
	}
}

func (id ID) String() string { return string(id) }
