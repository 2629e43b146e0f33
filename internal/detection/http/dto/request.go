// Package dto provides data transfer objects for the detection admin API.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/fieldsrv/guardpost/internal/detection/usecase"
	customValidation "github.com/fieldsrv/guardpost/internal/validation"
)

// UpdateDetectionConfigRequest is a partial detection config update.
// Absent fields leave the current value unchanged.
type UpdateDetectionConfigRequest struct {
	Sensitivity         *int    `json:"sensitivity"`
	AutomaticBlocking   *bool   `json:"automatic_blocking"`
	GeoAnomalyDetection *bool   `json:"geo_anomaly_detection"`
	MaxSuspiciousScore  *int    `json:"max_suspicious_score"`
	ProfileLearning     *string `json:"profile_learning"`
}

// Validate checks every present field of the config update request.
func (r *UpdateDetectionConfigRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Sensitivity,
			validation.Min(1),
			validation.Max(10),
		),
		validation.Field(&r.MaxSuspiciousScore,
			validation.Min(1),
		),
		validation.Field(&r.ProfileLearning,
			validation.In("always", "trusted-only"),
		),
	)
}

// ToConfigUpdate converts the request to the use case update type.
func (r *UpdateDetectionConfigRequest) ToConfigUpdate() usecase.ConfigUpdate {
	return usecase.ConfigUpdate{
		Sensitivity:         r.Sensitivity,
		AutomaticBlocking:   r.AutomaticBlocking,
		GeoAnomalyDetection: r.GeoAnomalyDetection,
		MaxSuspiciousScore:  r.MaxSuspiciousScore,
		ProfileLearning:     r.ProfileLearning,
	}
}

// BlockAddressRequest contains the address to add to the blocked set.
type BlockAddressRequest struct {
	Address string `json:"address"`
}

// Validate checks if the block address request is valid.
func (r *BlockAddressRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Address,
			validation.Required,
			customValidation.NotBlank,
			customValidation.IPAddress,
		),
	)
}
