package token

import (
	authmw "smartdoor/pkg/platform/middleware/auth"
)

// ServiceAdapter bridges the token service to the auth middleware's validator
// interface without the middleware importing JWT types.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) ValidateToken(tokenString string) (*authmw.TokenClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.TokenClaims{
		SubjectID: claims.SubjectID,
		JTI:       claims.ID,
	}, nil
}
