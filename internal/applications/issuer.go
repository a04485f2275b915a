package applications

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"incubator-portal/internal/applications/store"
	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/common/logger"
	"incubator-portal/internal/common/metrics"
	"incubator-portal/internal/models"
)

const DefaultMaxAttempts = 5

// IDLookup is the slice of the store the issuer needs.
type IDLookup interface {
	FindByField(ctx context.Context, field, value string) (*models.Application, error)
}

// Issuer mints applicationIds of the form app-<6 digits>-<8 hex>. The digits are
// the low six of the Unix-millisecond clock; the hex part is 4 random bytes.
type Issuer struct {
	lookup      IDLookup
	maxAttempts int
	now         func() time.Time
	random      io.Reader
	logger      logger.Logger
}

func NewIssuer(lookup IDLookup, maxAttempts int, log logger.Logger) *Issuer {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Issuer{
		lookup:      lookup,
		maxAttempts: maxAttempts,
		now:         time.Now,
		random:      rand.Reader,
		logger:      log.WithFields(map[string]interface{}{"component": "issuer"}),
	}
}

// Issue returns an applicationId not currently present in the store. The check is
// not atomic with the later insert; the store's unique index catches the race.
func (i *Issuer) Issue(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		candidate, err := i.candidate()
		if err != nil {
			return "", apperrors.NewInternalError(err)
		}

		_, err = i.lookup.FindByField(ctx, "applicationId", candidate)
		switch {
		case errors.Is(err, store.ErrNotFound):
			metrics.IDIssueAttempts.Observe(float64(attempt))
			return candidate, nil
		case err != nil:
			return "", storeError("issue id", candidate, err)
		}

		i.logger.Warn("applicationId collision, regenerating", map[string]interface{}{
			"candidate": candidate,
			"attempt":   attempt,
		})
	}

	return "", apperrors.NewIDExhaustedError(i.maxAttempts)
}

func (i *Issuer) candidate() (string, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(i.random, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	suffix := i.now().UnixMilli() % 1_000_000
	return fmt.Sprintf("app-%06d-%s", suffix, hex.EncodeToString(buf)), nil
}
