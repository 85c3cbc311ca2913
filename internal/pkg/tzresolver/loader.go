package tzresolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shandysiswandi/adminauth/internal/pkg/storage"
)

// maxDatabaseSize caps the downloaded City database; GeoLite2-City is ~70MB.
const maxDatabaseSize = 256 << 20

// LoadGeoIPFromStorage downloads the City database from object storage,
// retrying transient failures with capped exponential backoff.
func LoadGeoIPFromStorage(ctx context.Context, st storage.Storage, bucket, key string) (*GeoIP, error) {
	var data []byte

	b := retry.NewExponential(250 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(4, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		rc, _, err := st.GetObject(ctx, bucket, key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return err
		}
		if err != nil {
			return retry.RetryableError(err)
		}
		defer rc.Close()

		data, err = io.ReadAll(io.LimitReader(rc, maxDatabaseSize+1))
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tzresolver: download %s/%s: %w", bucket, key, err)
	}
	if len(data) > maxDatabaseSize {
		return nil, fmt.Errorf("tzresolver: database %s/%s exceeds %d bytes", bucket, key, maxDatabaseSize)
	}

	return GeoIPFromBytes(data)
}
