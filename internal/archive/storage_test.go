package archive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"

	"github.com/schoolarchive/archive/internal/archive"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{-5, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1100, "1.07 KB"},
		{1 << 20, "1 MB"},
		{15 * 1 << 30, "15 GB"},
		{5 << 40, "5 TB"},
		{1 << 60, "1 EB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, archive.FormatBytes(tt.in))
		})
	}
}

func TestStorageInfo(t *testing.T) {
	remote := &fakeRemote{quota: &drive.AboutStorageQuota{
		Limit:             15 << 30,
		Usage:             5 << 30,
		UsageInDriveTrash: 512 << 20,
	}}
	g := newGateway(t, remote)

	info, err := g.StorageInfo(context.Background())

	require.NoError(t, err)
	assert.False(t, info.Unlimited)
	assert.Equal(t, "15 GB", info.Total)
	assert.Equal(t, "5 GB", info.Used)
	assert.Equal(t, "10 GB", info.Available)
	assert.Equal(t, "512 MB", info.Trashed)
	assert.Equal(t, int64(10<<30), info.AvailableBytes)
}

func TestStorageInfo_ZeroLimitIsUnlimited(t *testing.T) {
	remote := &fakeRemote{quota: &drive.AboutStorageQuota{Usage: 2048}}
	g := newGateway(t, remote)

	info, err := g.StorageInfo(context.Background())

	require.NoError(t, err)
	assert.True(t, info.Unlimited)
	assert.Equal(t, "Unlimited", info.Total)
	assert.Equal(t, "Unlimited", info.Available)
	assert.Equal(t, "2 KB", info.Used)
	assert.Equal(t, "0 Bytes", info.Trashed)
}
