package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/weather-oracle/oracle/internal/domain"
)

// Key derives the content-addressed cache key for a forecast request:
// coordinates rounded to ~1km precision, the sorted model set, and an
// hour-rounded epoch bucket, so two requests inside the same clock hour
// for the same location and model set collide on purpose.
func Key(coords domain.Coordinates, models []string, at time.Time) string {
	sortedModels := make([]string, len(models))
	copy(sortedModels, models)
	sort.Strings(sortedModels)

	bucket := at.UTC().Truncate(time.Hour).Unix()
	return fmt.Sprintf("forecast:%.2f,%.2f:%s:%d",
		coords.Latitude.Raw(), coords.Longitude.Raw(), strings.Join(sortedModels, ","), bucket)
}
