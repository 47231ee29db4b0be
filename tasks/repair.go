package tasks

import (
	"context"
	"time"

	"campusnet/monitoring"
	"campusnet/storage/models"

	log "github.com/sirupsen/logrus"
)

// GraphStore is the slice of the store the repair sweep needs. AddFollowEdge
// must be idempotent; the sweep may re-apply an edge that already half
// exists.
type GraphStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	AddFollowEdge(ctx context.Context, actorID, targetID string) error
}

// SymmetrizeEdges makes follower/following sets mutually consistent. Any
// directed edge recorded on either side is completed on the other (union
// semantics). Returns the number of edges repaired. Running it twice in a
// row repairs nothing the second time.
func SymmetrizeEdges(ctx context.Context, store GraphStore) (int, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	following := make(map[string]map[string]bool, len(users))
	followers := make(map[string]map[string]bool, len(users))
	for _, user := range users {
		id := user.ID.Hex()
		following[id] = toSet(user.Following)
		followers[id] = toSet(user.Followers)
	}

	type edge struct{ actor, target string }
	missing := make(map[edge]bool)

	for _, user := range users {
		id := user.ID.Hex()
		// A follows B but B does not list A as a follower
		for target := range following[id] {
			if set, known := followers[target]; known && !set[id] {
				missing[edge{actor: id, target: target}] = true
			}
		}
		// B lists A as a follower but A does not follow B
		for actor := range followers[id] {
			if set, known := following[actor]; known && !set[id] {
				missing[edge{actor: actor, target: id}] = true
			}
		}
	}

	repaired := 0
	for e := range missing {
		if err := store.AddFollowEdge(ctx, e.actor, e.target); err != nil {
			log.Errorf("Error repairing edge %s -> %s: %v", e.actor, e.target, err)
			continue
		}
		repaired++
	}
	if repaired > 0 {
		monitoring.EdgeRepairs.Add(float64(repaired))
		log.Infof("Symmetrize sweep repaired %d follow edges", repaired)
	}
	return repaired, nil
}

// RunEdgeRepair runs the symmetrize sweep periodically.
func RunEdgeRepair(store GraphStore, interval time.Duration) {
	for {
		select {
		case <-time.After(interval):
			if _, err := SymmetrizeEdges(context.Background(), store); err != nil {
				log.Errorf("Error running symmetrize sweep: %v", err)
			}
		}
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
