package miio

import (
	"encoding/json"
	"fmt"
)

// maxPropertiesPerRequest is the largest get_properties batch MIoT devices accept.
const maxPropertiesPerRequest = 15

// Property addresses one MIoT property by service and property id.
type Property struct {
	Name string
	SIID int
	PIID int
}

// PropertyValue is one entry of a get_properties/set_properties reply.
type PropertyValue struct {
	DID   string          `json:"did"`
	SIID  int             `json:"siid"`
	PIID  int             `json:"piid"`
	Code  int             `json:"code"`
	Value json.RawMessage `json:"value,omitempty"`
}

type propertyRequest struct {
	DID   string `json:"did"`
	SIID  int    `json:"siid"`
	PIID  int    `json:"piid"`
	Value any    `json:"value,omitempty"`
}

// GetProperties reads the given properties and returns the successful ones keyed by name.
// Properties answered with a non-zero code are omitted.
func (c *Client) GetProperties(props []Property) (map[string]PropertyValue, error) {
	values := make(map[string]PropertyValue, len(props))

	for start := 0; start < len(props); start += maxPropertiesPerRequest {
		end := min(start+maxPropertiesPerRequest, len(props))

		params := make([]propertyRequest, 0, end-start)
		for _, p := range props[start:end] {
			params = append(params, propertyRequest{DID: p.Name, SIID: p.SIID, PIID: p.PIID})
		}

		raw, err := c.Call("get_properties", params)
		if err != nil {
			return nil, err
		}

		var batch []PropertyValue
		if err := json.Unmarshal(raw, &batch); err != nil {
			return nil, fmt.Errorf("miio: decode get_properties result: %w", err)
		}
		for _, v := range batch {
			if v.Code == 0 {
				values[v.DID] = v
			}
		}
	}

	return values, nil
}

// SetProperty writes one property and checks the per-property status code.
func (c *Client) SetProperty(p Property, value any) error {
	raw, err := c.Call("set_properties", []propertyRequest{{DID: p.Name, SIID: p.SIID, PIID: p.PIID, Value: value}})
	if err != nil {
		return err
	}

	var results []PropertyValue
	if err := json.Unmarshal(raw, &results); err != nil {
		return fmt.Errorf("miio: decode set_properties result: %w", err)
	}
	for _, r := range results {
		if r.Code != 0 {
			return &PropertyError{DID: r.DID, Code: r.Code}
		}
	}
	return nil
}
