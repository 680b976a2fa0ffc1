package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateSaleNumber combines a millisecond timestamp with a random suffix.
// Uniqueness is probabilistic; the sale_number unique index is the backstop.
func GenerateSaleNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("SALE-%d-%s", now.UnixMilli(), suffix)
}
