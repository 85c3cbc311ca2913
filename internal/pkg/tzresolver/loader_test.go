package tzresolver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shandysiswandi/adminauth/internal/pkg/storage"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(bucket, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, storage.ObjectInfo{}, args.Error(1)
}

func (m *mockStorage) StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, nil
}

func (m *mockStorage) Close() error { return nil }

func TestLoadGeoIPFromStorage_NotFoundIsNotRetried(t *testing.T) {
	st := new(mockStorage)
	st.On("GetObject", "geo", "city.mmdb").Return(nil, storage.ErrObjectNotFound).Once()

	_, err := LoadGeoIPFromStorage(context.Background(), st, "geo", "city.mmdb")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	st.AssertNumberOfCalls(t, "GetObject", 1)
}

func TestLoadGeoIPFromStorage_RetriesTransient(t *testing.T) {
	st := new(mockStorage)
	st.On("GetObject", "geo", "city.mmdb").Return(nil, errors.New("connection reset")).Twice()
	st.On("GetObject", "geo", "city.mmdb").Return(io.NopCloser(bytes.NewReader([]byte("garbage"))), nil).Once()

	_, err := LoadGeoIPFromStorage(context.Background(), st, "geo", "city.mmdb")
	assert.Error(t, err, "garbage is not a valid database")
	st.AssertNumberOfCalls(t, "GetObject", 3)
}
