package validator

import (
	"testing"
	"time"

	"github.com/etiennegalea/housing-scraper/internal/models"
)

func TestValidator_ValidateStruct(t *testing.T) {
	v := New()

	now := time.Now()
	tests := []struct {
		name    string
		listing models.Listing
		wantErr bool
	}{
		{
			name: "Valid listing",
			listing: models.Listing{
				ID:           "48503",
				City:         "Amsterdam",
				Rent:         1175.50,
				DiscoveredAt: now,
				URL:          "https://aanbod.ymere.nl/aanbod/huurwoningen/details/?publicationID=48503",
			},
			wantErr: false,
		},
		{
			name: "Missing ID",
			listing: models.Listing{
				City:         "Amsterdam",
				Rent:         1175.50,
				DiscoveredAt: now,
				URL:          "https://example.com/listing",
			},
			wantErr: true,
		},
		{
			name: "Zero rent",
			listing: models.Listing{
				ID:           "48503",
				City:         "Amsterdam",
				Rent:         0,
				DiscoveredAt: now,
				URL:          "https://example.com/listing",
			},
			wantErr: true,
		},
		{
			name: "Invalid URL",
			listing: models.Listing{
				ID:           "48503",
				City:         "Amsterdam",
				Rent:         950,
				DiscoveredAt: now,
				URL:          "not-a-url",
			},
			wantErr: true,
		},
		{
			name: "Missing discovery timestamp",
			listing: models.Listing{
				ID:   "48503",
				City: "Amsterdam",
				Rent: 950,
				URL:  "https://example.com/listing",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.ValidateStruct(tt.listing); (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
