package user

import "github.com/amirasaad/spendsense/pkg/domain"

// EligibilityRequest is the request body for a single offer check.
type EligibilityRequest struct {
	Offer *domain.Offer `json:"offer" validate:"required"`
}

// RecommendationsRequest is the request body for issuing recommendations.
type RecommendationsRequest struct {
	Offers []*domain.Offer `json:"offers" validate:"required,min=1,max=50,dive,required"`
}
