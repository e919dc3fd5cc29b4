package products

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// OrionParams is the canonical parameter set for memory-coupon barrier notes.
// Every field has a documented default applied when the document omits it.
type OrionParams struct {
	UpperBarrier         float64 `json:"upper_barrier"`
	LowerBarrier         float64 `json:"lower_barrier"`
	Rebate               float64 `json:"rebate"`
	CapitalGuaranteed    float64 `json:"capital_guaranteed"`
	CouponRate           float64 `json:"coupon_rate"`
	ObservationFrequency string  `json:"observation_frequency"`
	MemoryCoupon         bool    `json:"memory_coupon"`
	MemoryType           string  `json:"memory_type"`
}

// RebateType distinguishes flat issuer-call rebates from annualized ones.
type RebateType string

const (
	RebateFixed    RebateType = "fixed"
	RebatePerAnnum RebateType = "per_annum"
)

// ParticipationParams is the canonical parameter set for participation notes.
type ParticipationParams struct {
	ParticipationRate    float64    `json:"participation_rate"`
	BasketType           string     `json:"basket_type"`
	IssuerCallDate       *time.Time `json:"issuer_call_date,omitempty"`
	IssuerCallPrice      *float64   `json:"issuer_call_price,omitempty"`
	IssuerCallRebate     float64    `json:"issuer_call_rebate"`
	IssuerCallRebateType RebateType `json:"issuer_call_rebate_type"`
	// ProtectionLevel is the call-conditional capital guarantee, nil when the
	// document configures none.
	ProtectionLevel *float64 `json:"protection_level,omitempty"`
}

// ExtractOrionParams normalizes the synonymous structure bags into one typed
// parameter set. Each field runs its own fallback chain across the bags so a
// document may scatter parameters between structureParams and structure.
func (p *Product) ExtractOrionParams() OrionParams {
	bags := p.paramBags()

	params := OrionParams{
		UpperBarrier:         numFieldDefault(bags, 100, "upperBarrier", "upper_barrier"),
		LowerBarrier:         numFieldDefault(bags, 70, "lowerBarrier", "lower_barrier"),
		CapitalGuaranteed:    numFieldDefault(bags, 100, "capitalGuaranteed", "capital_guaranteed"),
		ObservationFrequency: strFieldDefault(bags, "quarterly", "observationFrequency", "observation_frequency"),
		MemoryType:           strFieldDefault(bags, "full", "memoryType", "memory_type"),
	}

	// Rebate borrows couponRate when absent; couponRate borrows rebate. The
	// borrow is intentional: older documents carry only one of the two.
	if v, ok := numField(bags, "rebate"); ok {
		params.Rebate = v
	} else if v, ok := numField(bags, "couponRate", "coupon_rate"); ok {
		params.Rebate = v
	} else {
		params.Rebate = 8.0
	}

	if v, ok := numField(bags, "couponRate", "coupon_rate"); ok {
		params.CouponRate = v
	} else if v, ok := numField(bags, "rebate"); ok {
		params.CouponRate = v
	}

	// Memory coupon is on unless the document explicitly disables it.
	params.MemoryCoupon = true
	if v, ok := boolField(bags, "memoryCoupon", "memory_coupon"); ok && !v {
		params.MemoryCoupon = false
	}

	return params
}

// ExtractParticipationParams normalizes the synonymous structure bags into one
// typed parameter set for participation notes.
func (p *Product) ExtractParticipationParams() ParticipationParams {
	bags := p.paramBags()

	params := ParticipationParams{
		ParticipationRate:    numFieldDefault(bags, 100, "participationRate", "participation_rate"),
		BasketType:           strFieldDefault(bags, "worst-of", "basketType", "basket_type"),
		IssuerCallRebate:     numFieldDefault(bags, 0, "issuerCallRebate", "issuer_call_rebate"),
		IssuerCallRebateType: RebateFixed,
	}

	if s, ok := strField(bags, "issuerCallRebateType", "issuer_call_rebate_type"); ok {
		if RebateType(s) == RebatePerAnnum {
			params.IssuerCallRebateType = RebatePerAnnum
		}
	}

	if d, ok := dateField(bags, "issuerCallDate", "issuer_call_date"); ok {
		params.IssuerCallDate = &d
	}
	if v, ok := numField(bags, "issuerCallPrice", "issuer_call_price"); ok {
		params.IssuerCallPrice = &v
	}

	if v, ok := numField(bags,
		"capitalGuarantee", "capital_guarantee",
		"protectionBarrier", "protection_barrier",
		"protectionLevel", "protection_level",
		"capitalProtection", "capital_protection"); ok {
		params.ProtectionLevel = &v
	} else if v, ok := protectionFromComponents(bags); ok {
		params.ProtectionLevel = &v
	}

	return params
}

// protectionFromComponents digs a protection level out of a components array,
// the last-resort location used by some imported documents: an entry of type
// BARRIER whose barrier_type is protection or capital_protection.
func protectionFromComponents(bags []map[string]interface{}) (float64, bool) {
	for _, bag := range bags {
		if bag == nil {
			continue
		}
		comps, ok := bag["components"].([]interface{})
		if !ok {
			continue
		}
		for _, c := range comps {
			comp, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			ctype, _ := strValue(comp["type"])
			if !strings.EqualFold(ctype, "BARRIER") {
				continue
			}
			btype, _ := strValue(firstPresent(comp, "barrier_type", "barrierType"))
			switch strings.ToLower(btype) {
			case "protection", "capital_protection":
				if v, ok := numValue(firstPresent(comp, "level", "value", "barrier")); ok {
					return v, true
				}
			}
		}
	}
	return 0, false
}

func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// numField looks keys up across the bags in priority order.
func numField(bags []map[string]interface{}, keys ...string) (float64, bool) {
	for _, bag := range bags {
		if bag == nil {
			continue
		}
		for _, k := range keys {
			if v, ok := numValue(bag[k]); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func numFieldDefault(bags []map[string]interface{}, def float64, keys ...string) float64 {
	if v, ok := numField(bags, keys...); ok {
		return v
	}
	return def
}

func strField(bags []map[string]interface{}, keys ...string) (string, bool) {
	for _, bag := range bags {
		if bag == nil {
			continue
		}
		for _, k := range keys {
			if v, ok := strValue(bag[k]); ok {
				return v, true
			}
		}
	}
	return "", false
}

func strFieldDefault(bags []map[string]interface{}, def string, keys ...string) string {
	if v, ok := strField(bags, keys...); ok {
		return v
	}
	return def
}

func boolField(bags []map[string]interface{}, keys ...string) (bool, bool) {
	for _, bag := range bags {
		if bag == nil {
			continue
		}
		for _, k := range keys {
			switch v := bag[k].(type) {
			case bool:
				return v, true
			case string:
				if b, err := strconv.ParseBool(v); err == nil {
					return b, true
				}
			}
		}
	}
	return false, false
}

func dateField(bags []map[string]interface{}, keys ...string) (time.Time, bool) {
	s, ok := strField(bags, keys...)
	if !ok {
		return time.Time{}, false
	}
	return parseFlexibleDate(s)
}

// parseFlexibleDate accepts the date formats seen in imported documents.
func parseFlexibleDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// numValue coerces the numeric representations JSON decoding can produce.
func numValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func strValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
