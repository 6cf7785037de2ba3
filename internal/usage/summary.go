package usage

import (
	"sort"
	"time"

	"audio-insights-go/internal/types"
)

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary is the aggregate view of a usage log.
type Summary struct {
	Total       int       `json:"total"`
	First       time.Time `json:"first"`
	Last        time.Time `json:"last"`
	BySubmitter []Count   `json:"by_submitter"`
	ByDay       []Count   `json:"by_day"`
}

// Summarize counts runs per submitter (busiest first) and per day (chronological).
func Summarize(records []types.UsageRecord) Summary {
	bySubmitter := map[string]int{}
	byDay := map[string]int{}
	s := Summary{Total: len(records)}
	for _, r := range records {
		bySubmitter[r.SubmitterName]++
		byDay[r.At.Format(types.DateLayout)]++
		if s.First.IsZero() || r.At.Before(s.First) {
			s.First = r.At
		}
		if r.At.After(s.Last) {
			s.Last = r.At
		}
	}

	s.BySubmitter = counts(bySubmitter)
	sort.SliceStable(s.BySubmitter, func(i, j int) bool {
		if s.BySubmitter[i].Count != s.BySubmitter[j].Count {
			return s.BySubmitter[i].Count > s.BySubmitter[j].Count
		}
		return s.BySubmitter[i].Key < s.BySubmitter[j].Key
	})
	s.ByDay = counts(byDay)
	sort.Slice(s.ByDay, func(i, j int) bool { return s.ByDay[i].Key < s.ByDay[j].Key })
	return s
}

func counts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	return out
}
