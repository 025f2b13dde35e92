package requests

import "sort"

// Bucket groups requests for display.
type Bucket string

const (
	// BucketPengajuan holds open requests nobody has acted on.
	BucketPengajuan Bucket = "pengajuan"
	// BucketProses holds approved requests whose goods are on the way.
	BucketProses Bucket = "proses"
	// BucketRiwayat holds finished requests.
	BucketRiwayat Bucket = "riwayat"
)

// BucketOf places a status in exactly one bucket.
func BucketOf(s Status) Bucket {
	switch s {
	case StatusPending:
		return BucketPengajuan
	case StatusApproved:
		return BucketProses
	case StatusRejected, StatusReceived, StatusCancelled:
		return BucketRiwayat
	default:
		// ParseStatus never yields anything else; treat a stray value as history.
		return BucketRiwayat
	}
}

// Buckets is a partition of a request list.
type Buckets struct {
	Pengajuan []StockRequest `json:"pengajuan"`
	Proses    []StockRequest `json:"proses"`
	Riwayat   []StockRequest `json:"riwayat"`
}

// Len is the number of requests across all buckets.
func (b Buckets) Len() int {
	return len(b.Pengajuan) + len(b.Proses) + len(b.Riwayat)
}

// Get returns one bucket by name.
func (b Buckets) Get(name Bucket) []StockRequest {
	switch name {
	case BucketPengajuan:
		return b.Pengajuan
	case BucketProses:
		return b.Proses
	default:
		return b.Riwayat
	}
}

// Partition splits list by BucketOf. Every request lands in exactly one
// bucket. Each bucket is ordered newest first, ties broken by descending id.
func Partition(list []StockRequest) Buckets {
	b := Buckets{
		Pengajuan: []StockRequest{},
		Proses:    []StockRequest{},
		Riwayat:   []StockRequest{},
	}
	for _, r := range list {
		switch BucketOf(r.Status) {
		case BucketPengajuan:
			b.Pengajuan = append(b.Pengajuan, r)
		case BucketProses:
			b.Proses = append(b.Proses, r)
		default:
			b.Riwayat = append(b.Riwayat, r)
		}
	}

	newestFirst(b.Pengajuan)
	newestFirst(b.Proses)
	newestFirst(b.Riwayat)
	return b
}

func newestFirst(list []StockRequest) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}
