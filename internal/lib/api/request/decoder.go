package request

import (
	"encoding/json"
	"fmt"
)

// DecodeArrayData decodes Data into a typed slice. A single object is wrapped in a
// one-element slice, so callers accept both shapes.
func DecodeArrayData[T any](req *Request, target *[]T) error {
	if req.Data == nil {
		*target = []T{}
		return nil
	}

	dataBytes, err := json.Marshal(req.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err = json.Unmarshal(dataBytes, target); err == nil {
		return nil
	}

	var singleItem T
	if err = json.Unmarshal(dataBytes, &singleItem); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	*target = []T{singleItem}
	return nil
}
