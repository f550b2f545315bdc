package mailfilter

import (
	"sort"

	"github.com/sublens-app/sublens/internal/model"
)

// FunnelStats counts messages through each intake stage for one batch.
// Zero accepted messages should be explainable from these counters alone.
type FunnelStats struct {
	Reasons           map[model.RejectReason]int
	In                int
	SubjectFiltered   int
	AmountContextPass int
	Accepted          int
	IssuerLane        int
	MerchantLane      int
}

// NewFunnelStats returns an empty stats collector.
func NewFunnelStats() *FunnelStats {
	return &FunnelStats{
		Reasons: make(map[model.RejectReason]int),
	}
}

// Record folds one classification into the funnel.
func (s *FunnelStats) Record(c model.MailClassification) {
	s.In++

	switch c.Lane {
	case model.LaneIssuer:
		s.IssuerLane++
	case model.LaneMerchant:
		s.MerchantLane++
	}

	subjectOK := true
	amountOK := true
	for _, reason := range c.Reasons {
		s.Reasons[reason]++
		switch reason {
		case model.ReasonSubjectMismatch:
			subjectOK = false
		case model.ReasonNoAmount, model.ReasonNoContext:
			amountOK = false
		}
	}

	if subjectOK {
		s.SubjectFiltered++
		if amountOK {
			s.AmountContextPass++
		}
	}

	if c.Accepted() {
		s.Accepted++
	}
}

// CountReason records a rejection that happened outside the two-lane
// classifier, such as an announcement-guard or statement drop.
func (s *FunnelStats) CountReason(reason model.RejectReason) {
	s.Reasons[reason]++
}

// ReasonFrequency is one row of the rejection histogram.
type ReasonFrequency struct {
	Reason model.RejectReason
	Count  int
}

// Histogram returns the rejection reasons sorted by frequency, most
// common first.
func (s *FunnelStats) Histogram() []ReasonFrequency {
	rows := make([]ReasonFrequency, 0, len(s.Reasons))
	for reason, count := range s.Reasons {
		rows = append(rows, ReasonFrequency{Reason: reason, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Reason < rows[j].Reason
	})
	return rows
}
