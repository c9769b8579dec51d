package archive

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

const unlimited = "Unlimited"

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// StorageInfo is the Drive quota of the service account, raw and formatted.
type StorageInfo struct {
	TotalBytes     int64  `json:"totalBytes"`
	UsedBytes      int64  `json:"usedBytes"`
	AvailableBytes int64  `json:"availableBytes"`
	TrashedBytes   int64  `json:"trashedBytes"`
	Unlimited      bool   `json:"unlimited"`
	Total          string `json:"total"`
	Used           string `json:"used"`
	Available      string `json:"available"`
	Trashed        string `json:"trashed"`
}

// StorageInfo reports capacity and usage. A zero limit means the account
// has no quota.
func (g *Gateway) StorageInfo(ctx context.Context) (*StorageInfo, error) {
	q, err := g.remote.Quota(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching storage quota: %w", err)
	}

	info := &StorageInfo{
		TotalBytes:   q.Limit,
		UsedBytes:    q.Usage,
		TrashedBytes: q.UsageInDriveTrash,
		Used:         FormatBytes(q.Usage),
		Trashed:      FormatBytes(q.UsageInDriveTrash),
	}
	if q.Limit == 0 {
		info.Unlimited = true
		info.Total = unlimited
		info.Available = unlimited
		return info, nil
	}

	info.AvailableBytes = max(q.Limit-q.Usage, 0)
	info.Total = FormatBytes(q.Limit)
	info.Available = FormatBytes(info.AvailableBytes)
	return info, nil
}

// FormatBytes renders n in base-1024 units rounded to two decimals, with
// trailing zeros dropped: 1024 is "1 KB", 1536 is "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}
