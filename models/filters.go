// ABOUTME: Saved targeting filter preference and its legacy decoding
// ABOUTME: Accepts both the bare company-id array and the object shape
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TargetingFilters is the saved filter preference for the targeting view.
type TargetingFilters struct {
	FirmTypes   []string `json:"firmTypes"`
	Sectors     []string `json:"sectors"`
	AUM         []string `json:"aum"`
	BuySell     []string `json:"buySell"`
	CustomerIDs []string `json:"customerIds"`
}

// IsEmpty reports whether no filter value is set.
func (f TargetingFilters) IsEmpty() bool {
	return len(f.FirmTypes) == 0 && len(f.Sectors) == 0 && len(f.AUM) == 0 &&
		len(f.BuySell) == 0 && len(f.CustomerIDs) == 0
}

// normalized replaces nil slices with empty ones so callers can range and
// compare without nil checks.
func (f TargetingFilters) normalized() TargetingFilters {
	fix := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	return TargetingFilters{
		FirmTypes:   fix(f.FirmTypes),
		Sectors:     fix(f.Sectors),
		AUM:         fix(f.AUM),
		BuySell:     fix(f.BuySell),
		CustomerIDs: fix(f.CustomerIDs),
	}
}

// DecodeTargetingFilters parses a stored preference. A bare JSON array is
// the legacy shape and is read as customer (company) ids.
func DecodeTargetingFilters(data []byte) (TargetingFilters, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return TargetingFilters{}.normalized(), nil
	}

	if data[0] == '[' {
		var ids []ID
		if err := json.Unmarshal(data, &ids); err != nil {
			return TargetingFilters{}, fmt.Errorf("invalid legacy filter array: %w", err)
		}
		f := TargetingFilters{CustomerIDs: make([]string, 0, len(ids))}
		for _, id := range ids {
			if !id.IsZero() {
				f.CustomerIDs = append(f.CustomerIDs, id.String())
			}
		}
		return f.normalized(), nil
	}

	var raw struct {
		FirmTypes   []string `json:"firmTypes"`
		Sectors     []string `json:"sectors"`
		AUM         []string `json:"aum"`
		BuySell     []string `json:"buySell"`
		CustomerIDs []ID     `json:"customerIds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return TargetingFilters{}, fmt.Errorf("invalid filter object: %w", err)
	}
	f := TargetingFilters{
		FirmTypes: raw.FirmTypes,
		Sectors:   raw.Sectors,
		AUM:       raw.AUM,
		BuySell:   raw.BuySell,
	}
	for _, id := range raw.CustomerIDs {
		f.CustomerIDs = append(f.CustomerIDs, id.String())
	}
	return f.normalized(), nil
}

// EncodeTargetingFilters serialises the object shape.
func EncodeTargetingFilters(f TargetingFilters) ([]byte, error) {
	return json.Marshal(f.normalized())
}

// CompanyIDs returns the customer ids as list-row company ids.
func (f TargetingFilters) CompanyIDs() []ID {
	ids := make([]ID, 0, len(f.CustomerIDs))
	for _, c := range f.CustomerIDs {
		ids = append(ids, ID(c))
	}
	return ids
}
