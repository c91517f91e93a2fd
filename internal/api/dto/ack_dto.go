package dto

import "github.com/liveflow/donor-service/internal/repository"

// InsertAck acknowledges a created document.
type InsertAck struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateAck acknowledges a patch. MatchedCount 0 means nothing had the id.
type UpdateAck struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteAck acknowledges a retire.
type DeleteAck struct {
	Acknowledged bool   `json:"acknowledged"`
	DeletedCount int64  `json:"deletedCount"`
	ArchivedID   string `json:"archivedId,omitempty"`
	Resumed      bool   `json:"resumed,omitempty"`
}

// Inserted builds an InsertAck.
func Inserted(id string) InsertAck {
	return InsertAck{Acknowledged: true, InsertedID: id}
}

// Updated builds an UpdateAck from a store result.
func Updated(res repository.UpdateResult) UpdateAck {
	return UpdateAck{Acknowledged: true, MatchedCount: res.Matched, ModifiedCount: res.Modified}
}
