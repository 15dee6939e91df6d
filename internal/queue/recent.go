package queue

import "github.com/avernet/cadenza/internal/track"

// upsertRecent records a played item in the recent list. An item
// already present is promoted to newest by rank alone; only genuinely
// new items count against the capacity, evicting the oldest entries
// first.
func (e *Engine) upsertRecent(t track.Track) error {
	exists, err := e.store.HasMember(e.recentID, t.URI)
	if err != nil {
		return err
	}
	if !exists {
		n, err := e.store.CountMembers(e.recentID)
		if err != nil {
			return err
		}
		if n >= e.cfg.RecentLimit {
			if err := e.store.DeleteMembersBeyond(e.recentID, e.cfg.RecentLimit-1); err != nil {
				return err
			}
		}
	}
	max, err := e.store.MaxRank(e.recentID)
	if err != nil {
		return err
	}
	return e.store.UpsertMember(e.recentID, t, max+1)
}
