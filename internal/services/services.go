package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/ctxutil"
)

// Clock returns the current instant. Services take one so tests can pin the
// calendar year.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }

const DefaultTimeZone = "Europe/Berlin"

// LoadLocation falls back to UTC for an empty name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return loc, nil
}

var errUnauthorized = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("authentication required"))

func requestUserID(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, errUnauthorized
	}
	return rd.UserID, nil
}

// notFound maps gorm's miss to a 404 and wraps everything else.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound(what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
