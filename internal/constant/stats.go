package constant

const (
	// GlobalCommunityID addresses the repository-wide aggregations that are
	// not scoped to any single community.
	GlobalCommunityID = "__global__"

	// CommunityEventAdded and CommunityEventRemoved are the community_events
	// event types.
	CommunityEventAdded   = "added"
	CommunityEventRemoved = "removed"
)
