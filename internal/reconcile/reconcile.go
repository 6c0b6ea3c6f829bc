// Package reconcile merges a run's offers into the previously stored set.
package reconcile

import "github.com/pauljones0/pl-jobs-scraper/internal/models"

// Reconcile returns the updated store and the offers of current that were not in previous.
//
// Offers are matched by JobLink. The updated store keeps every previous offer, holds one
// entry per link in order of first appearance, and carries the latest copy's fields.
// Offers without a link cannot be matched: they are always novel and are all kept.
func Reconcile(previous, current []models.Offer) (updated, novel []models.Offer) {
	if len(previous) == 0 {
		return current, current
	}
	if len(current) == 0 {
		return previous, nil
	}

	known := make(map[string]struct{}, len(previous))
	for _, o := range previous {
		if o.HasKey() {
			known[o.JobLink] = struct{}{}
		}
	}

	novel = []models.Offer{}
	for _, o := range current {
		if _, ok := known[o.JobLink]; !ok || !o.HasKey() {
			novel = append(novel, o)
		}
	}

	combined := make([]models.Offer, 0, len(previous)+len(current))
	combined = append(combined, previous...)
	combined = append(combined, current...)
	return dedupe(combined), novel
}

// dedupe keeps one offer per JobLink, positioned where the link first appeared and
// holding the last copy seen.
func dedupe(offers []models.Offer) []models.Offer {
	index := make(map[string]int, len(offers))
	out := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if !o.HasKey() {
			out = append(out, o)
			continue
		}
		if i, ok := index[o.JobLink]; ok {
			out[i] = o
			continue
		}
		index[o.JobLink] = len(out)
		out = append(out, o)
	}
	return out
}

// KeylessCount returns how many offers have no JobLink.
func KeylessCount(offers []models.Offer) int {
	n := 0
	for _, o := range offers {
		if !o.HasKey() {
			n++
		}
	}
	return n
}
