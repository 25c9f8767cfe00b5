package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordKind discriminates the care-record variants.
type RecordKind string

const (
	RecordKindDaily   RecordKind = "daily"
	RecordKindMedical RecordKind = "medical"
	RecordKindProduct RecordKind = "product"
)

// DailyEntry is a routine skin log tied to a photo.
type DailyEntry struct {
	PhotoID    string   `json:"photo_id"`
	AnalysisID string   `json:"analysis_id,omitempty"`
	Products   []string `json:"products"`
}

// MedicalEntry records a clinical treatment visit.
type MedicalEntry struct {
	Treatment string   `json:"treatment"`
	Clinic    string   `json:"clinic"`
	Doctor    string   `json:"doctor"`
	Price     float64  `json:"price"`
	Rating    int      `json:"rating"`
	Notes     string   `json:"notes"`
	PhotoIDs  []string `json:"photo_ids"`
}

// ProductEntry records impressions of a skincare product in use.
type ProductEntry struct {
	ProductID string   `json:"product_id"`
	Feelings  []string `json:"feelings"`
	Notes     string   `json:"notes"`
	PhotoIDs  []string `json:"photo_ids"`
}

// Record is a tagged union over the three care-record variants. Exactly one
// of Daily, Medical and Product is non-nil, matching Kind.
type Record struct {
	ID      string     `json:"id"`
	UserID  string     `json:"user_id"`
	Kind    RecordKind `json:"kind"`
	Date    time.Time  `json:"date"`
	Daily   *DailyEntry
	Medical *MedicalEntry
	Product *ProductEntry
}

type recordEnvelope struct {
	ID      string          `json:"id"`
	UserID  string          `json:"user_id"`
	Kind    RecordKind      `json:"kind"`
	Date    time.Time       `json:"date"`
	Payload json.RawMessage `json:"payload"`
}

// Validate checks that the variant pointer matches the declared kind.
func (r Record) Validate() error {
	switch r.Kind {
	case RecordKindDaily:
		if r.Daily == nil || r.Medical != nil || r.Product != nil {
			return fmt.Errorf("daily record requires exactly the daily entry")
		}
	case RecordKindMedical:
		if r.Medical == nil || r.Daily != nil || r.Product != nil {
			return fmt.Errorf("medical record requires exactly the medical entry")
		}
	case RecordKindProduct:
		if r.Product == nil || r.Daily != nil || r.Medical != nil {
			return fmt.Errorf("product record requires exactly the product entry")
		}
	default:
		return fmt.Errorf("unknown record kind %q", r.Kind)
	}
	return nil
}

// MarshalJSON flattens the active variant into a payload keyed by kind.
func (r Record) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var payload interface{}
	switch r.Kind {
	case RecordKindDaily:
		payload = r.Daily
	case RecordKindMedical:
		payload = r.Medical
	case RecordKindProduct:
		payload = r.Product
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordEnvelope{
		ID:      r.ID,
		UserID:  r.UserID,
		Kind:    r.Kind,
		Date:    r.Date,
		Payload: raw,
	})
}

// UnmarshalJSON restores the variant indicated by the kind discriminant.
func (r *Record) UnmarshalJSON(data []byte) error {
	var env recordEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	out := Record{ID: env.ID, UserID: env.UserID, Kind: env.Kind, Date: env.Date}
	switch env.Kind {
	case RecordKindDaily:
		out.Daily = &DailyEntry{}
		if err := json.Unmarshal(env.Payload, out.Daily); err != nil {
			return err
		}
	case RecordKindMedical:
		out.Medical = &MedicalEntry{}
		if err := json.Unmarshal(env.Payload, out.Medical); err != nil {
			return err
		}
	case RecordKindProduct:
		out.Product = &ProductEntry{}
		if err := json.Unmarshal(env.Payload, out.Product); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown record kind %q", env.Kind)
	}

	*r = out
	return nil
}

// RecordFilter scopes record listings.
type RecordFilter struct {
	UserID   string
	Kind     RecordKind
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
