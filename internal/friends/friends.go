// Package friends implements read-only queries over the native friend list.
package friends

import (
	"log/slog"

	"github.com/Norgate-AV/swbridge/internal/client"
	"github.com/Norgate-AV/swbridge/internal/interfaces"
	"github.com/Norgate-AV/swbridge/internal/logger"
	"github.com/Norgate-AV/swbridge/internal/steamid"
)

// Friend is a snapshot of one account. It is built fresh on every query.
type Friend struct {
	ID   steamid.ID
	Name string
}

// Service answers friend queries against the native client
type Service struct {
	log    logger.LoggerInterface
	native func() interfaces.NativeFriends
}

// NewService creates a Service that resolves the process-wide client on every call
func NewService(log logger.LoggerInterface) *Service {
	return &Service{
		log: log,
		native: func() interfaces.NativeFriends {
			return client.Resolve().Friends()
		},
	}
}

// NewServiceWithDeps creates a Service bound to a specific native interface
func NewServiceWithDeps(log logger.LoggerInterface, native interfaces.NativeFriends) *Service {
	return &Service{
		log:    log,
		native: func() interfaces.NativeFriends { return native },
	}
}

// GetFriends returns the friends matching any bit in flags, in native order.
// No match yields an empty, non-nil slice.
func (s *Service) GetFriends(flags Flags) []Friend {
	list := s.native().GetFriends(uint16(flags))

	out := make([]Friend, 0, len(list))
	for _, nf := range list {
		if nf == nil {
			continue
		}

		out = append(out, Friend{
			ID:   steamid.ID(nf.ID()),
			Name: nf.Name(),
		})
	}

	s.log.Debug("Queried friends",
		slog.String("flags", flags.String()),
		slog.Int("count", len(out)),
	)

	return out
}

// GetFriendName returns the cached display name for id. An account unknown
// to the native client gives an empty string, not an error.
func (s *Service) GetFriendName(id steamid.ID) string {
	nf := s.native().GetFriend(id.Uint64())
	if nf == nil {
		s.log.Trace("Friend not resolved", slog.String("steamId", id.String()))
		return ""
	}

	return nf.Name()
}
