package counter

// Kind names a logical high-fan-out counter. Each logical counter is
// partitioned into independent shards so concurrent writers never contend on
// one hot row; reads sum the shards.
type Kind string

const (
	KindSubmissions     Kind = "submissions"
	KindMembers         Kind = "members"
	KindFinalizedVoters Kind = "finalized_voters"
)

// NumShards is the shard fan-out per logical counter.
const NumShards = 16
