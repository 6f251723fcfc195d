// Package party defines replica identities for an OptRand committee.
package party

import (
	"fmt"
	"sort"
)

// ID identifies a replica within a committee of n nodes. Valid IDs are the
// integers [0, n); the committee size itself is never a valid ID.
type ID uint16

// IsValid reports whether the ID addresses a replica in a committee of n nodes.
func (id ID) IsValid(n int) bool {
	return int(id) < n
}

// Scalar returns the share-evaluation point for this replica. Shamir
// polynomials are evaluated at x = id+1 so that x = 0 stays reserved for the
// secret.
func (id ID) Scalar() uint64 {
	return uint64(id) + 1
}

func (id ID) String() string {
	return fmt.Sprintf("replica-%d", uint16(id))
}

// IDSlice is a sorted set of replica IDs.
type IDSlice []ID

// NewIDSlice returns a sorted copy of ids.
func NewIDSlice(ids []ID) IDSlice {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Committee returns the IDSlice {0, 1, ..., n-1}.
func Committee(n int) IDSlice {
	out := make(IDSlice, n)
	for i := range out {
		out[i] = ID(i)
	}
	return out
}

// Contains reports whether all the given IDs are in the slice.
func (s IDSlice) Contains(ids ...ID) bool {
	for _, id := range ids {
		i := sort.Search(len(s), func(j int) bool { return s[j] >= id })
		if i == len(s) || s[i] != id {
			return false
		}
	}
	return true
}

// Distinct reports whether the slice holds no duplicate IDs.
func (s IDSlice) Distinct() bool {
	seen := make(map[ID]struct{}, len(s))
	for _, id := range s {
		if _, ok := seen[id]; ok {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

// Destination addresses an outbound message. The zero value is a unicast to
// replica 0; use Broadcast for the whole committee. Replica addressing and
// broadcast are kept apart on purpose, so a committee-size sentinel never
// leaks into replica validation.
type Destination struct {
	to        ID
	broadcast bool
}

// Unicast addresses a single replica.
func Unicast(to ID) Destination {
	return Destination{to: to}
}

// Broadcast addresses every replica.
func Broadcast() Destination {
	return Destination{broadcast: true}
}

// IsBroadcast reports whether the destination is the whole committee.
func (d Destination) IsBroadcast() bool {
	return d.broadcast
}

// To returns the unicast target. It panics on a broadcast destination.
func (d Destination) To() ID {
	if d.broadcast {
		panic("party: To called on broadcast destination")
	}
	return d.to
}

func (d Destination) String() string {
	if d.broadcast {
		return "broadcast"
	}
	return d.to.String()
}
