// internal/workers/application/set-application-status/config.go
package setapplicationstatus

import (
	"time"

	"incubator-portal/internal/models"
)

type Config struct {
	Timeout time.Duration
	// Actor is the identity the review process acts as.
	Actor models.Actor
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Actor:   models.Actor{Identity: "review-workflow", Role: models.RoleAdmin},
	}
}
