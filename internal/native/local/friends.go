package local

import (
	"github.com/Norgate-AV/swbridge/internal/friends"
	"github.com/Norgate-AV/swbridge/internal/interfaces"
)

type account struct {
	id           uint64
	name         string
	relationship friends.Flags
}

func (a account) ID() uint64   { return a.id }
func (a account) Name() string { return a.name }

// friendList is immutable after construction.
type friendList struct {
	accounts []account
	byID     map[uint64]account
}

func newFriendList(fx *Fixture) *friendList {
	fl := &friendList{
		accounts: make([]account, 0, len(fx.Friends)),
		byID:     make(map[uint64]account, len(fx.Friends)),
	}

	for _, f := range fx.Friends {
		rel, _ := f.relationship()
		a := account{id: f.SteamID, name: f.Name, relationship: rel}
		fl.accounts = append(fl.accounts, a)
		fl.byID[a.id] = a
	}

	return fl
}

func (fl *friendList) GetFriends(flags uint16) []interfaces.NativeFriend {
	mask := friends.Flags(flags)

	out := make([]interfaces.NativeFriend, 0)
	for _, a := range fl.accounts {
		if a.relationship.Any(mask) {
			out = append(out, a)
		}
	}

	return out
}

// GetFriend never returns nil; an unknown id has an empty name.
func (fl *friendList) GetFriend(id uint64) interfaces.NativeFriend {
	if a, ok := fl.byID[id]; ok {
		return a
	}

	return account{id: id}
}
