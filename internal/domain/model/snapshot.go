package model

// PatientSnapshot holds the derived display fields mined from the document
// buffers. Every field is optional; a nil field means no pattern matched.
// The snapshot is recomputed on read and never stored.
type PatientSnapshot struct {
	Name        *string  `json:"name,omitempty"`
	Age         *string  `json:"age,omitempty"`
	Gender      *string  `json:"gender,omitempty"`
	HbA1c       *float64 `json:"hba1c,omitempty"`
	Cholesterol *float64 `json:"cholesterol,omitempty"`
	SystolicBP  *float64 `json:"systolic_bp,omitempty"`
}
