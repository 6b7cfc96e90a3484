package payins

import (
	"context"
	"sort"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// AnalyticsFilters restrict the aggregation window by payin date, inclusive
// on both ends, and optionally to a single referror or mentor. Zero values
// leave a dimension open.
type AnalyticsFilters struct {
	From     string
	To       string
	Referror string
	Mentor   string
}

// Bucket is one aggregation row.
type Bucket struct {
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// Analytics is the aggregate view over payins.
type Analytics struct {
	TotalCount    int      `json:"totalCount"`
	TotalAmount   float64  `json:"totalAmount"`
	AverageAmount float64  `json:"averageAmount"`
	EncodedCount  int      `json:"encodedCount"`
	ByReferror    []Bucket `json:"byReferror"`
	ByMentor      []Bucket `json:"byMentor"`
	ByMonth       []Bucket `json:"byMonth"`
}

// Analytics aggregates payins by referror, mentor and month. Requires the
// view_analytics permission; the guest role holds it by default.
func (s *Service) Analytics(ctx context.Context, actor *authz.User, filters AnalyticsFilters) (Analytics, error) {
	if !authz.HasPermission(actor, authz.PermViewAnalytics, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermViewAnalytics))
		return Analytics{}, shared.ErrAccessDenied
	}

	payins, err := s.List(ctx)
	if err != nil {
		return Analytics{}, err
	}

	out := Analytics{}
	byReferror := map[string]*Bucket{}
	byMentor := map[string]*Bucket{}
	byMonth := map[string]*Bucket{}
	for _, p := range payins {
		if filters.From != "" && p.Date < filters.From {
			continue
		}
		if filters.To != "" && p.Date > filters.To {
			continue
		}
		if filters.Referror != "" && p.Referror != filters.Referror {
			continue
		}
		if filters.Mentor != "" && p.Mentor != filters.Mentor {
			continue
		}
		out.TotalCount++
		out.TotalAmount += p.Amount
		if p.IsEncoded {
			out.EncodedCount++
		}
		accumulate(byReferror, p.Referror, p.Amount)
		accumulate(byMentor, p.Mentor, p.Amount)
		month := p.Date
		if len(month) >= 7 {
			month = month[:7]
		}
		accumulate(byMonth, month, p.Amount)
	}
	if out.TotalCount > 0 {
		out.AverageAmount = out.TotalAmount / float64(out.TotalCount)
	}
	out.ByReferror = sortBuckets(byReferror, byAmount)
	out.ByMentor = sortBuckets(byMentor, byAmount)
	out.ByMonth = sortBuckets(byMonth, byKey)
	return out, nil
}

func accumulate(m map[string]*Bucket, key string, amount float64) {
	if key == "" {
		key = "(none)"
	}
	b, ok := m[key]
	if !ok {
		b = &Bucket{Key: key}
		m[key] = b
	}
	b.Count++
	b.Amount += amount
}

type bucketOrder int

const (
	byAmount bucketOrder = iota
	byKey
)

func sortBuckets(m map[string]*Bucket, order bucketOrder) []Bucket {
	out := make([]Bucket, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if order == byKey {
			return out[i].Key < out[j].Key
		}
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Key < out[j].Key
	})
	return out
}
