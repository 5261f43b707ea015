package service

import "HydroFlow/internal/domain/models"

// ATRProvider tracks average true range over closed bars.
type ATRProvider interface {
	Update(b models.Bar)
	// Value returns the latest ATR and whether enough bars were seen to compute it.
	Value() (float64, bool)
}
