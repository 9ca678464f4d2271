package clients

import (
	"fmt"
	"strings"

	"github.com/facturante/facturante/internal/shared"
)

func (s *Service) validate(c Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: client name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(c.TaxID) == "" {
		return fmt.Errorf("%w: client tax id is required", shared.ErrValidation)
	}
	return nil
}
