package jobs

import (
	"context"
	"log"
	"time"

	"github.com/hirebridge/hirebridge/store"
)

// PurgeRevokedCredentials returns the cron task that removes revocation
// entries whose underlying token has already expired. Revoked tokens only
// matter until their own expiry; after that the signature check rejects them
// anyway and the row is dead weight.
func PurgeRevokedCredentials(revocations store.RevocationList) func() {
	return func() {
		purged, err := revocations.PurgeExpired(context.Background(), time.Now().UTC())
		if err != nil {
			log.Printf("Failed to purge expired revoked credentials: %v", err)
			return
		}
		if purged > 0 {
			log.Printf("Purged %d expired revoked credentials", purged)
		}
	}
}
