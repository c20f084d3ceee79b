// Package search maintains the full-text index behind user lookup.
package search

import (
	"context"
	"fmt"
	"strings"

	"chat-core/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const maxHits = 50

// UserIndex is a bluge index keyed by user id, holding the display
// name. Badger stays the source of truth; the index only answers
// "which ids match this name query".
type UserIndex struct {
	writer *bluge.Writer
}

func NewUserIndex(path string) (*UserIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &UserIndex{writer: writer}, nil
}

// Index upserts the user's name. Called on every identity resolve so
// renames are picked up.
func (x *UserIndex) Index(user domain.User) error {
	doc := bluge.NewDocument(user.ID.String()).
		AddField(bluge.NewTextField("name", user.Name).StoreValue())
	return x.writer.Update(doc.ID(), doc)
}

// Search returns ids of users whose name contains the query,
// case-insensitive. Blank queries match nothing.
func (x *UserIndex) Search(ctx context.Context, query string) ([]uuid.UUID, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil, nil
	}

	reader, err := x.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	// The wildcard query is not analyzed, hence the manual lowercasing
	// to line up with the default analyzer's tokens.
	wildcard := bluge.NewWildcardQuery("*" + query + "*").SetField("name")
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(maxHits, wildcard))
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					ids = append(ids, id)
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (x *UserIndex) Close() error {
	return x.writer.Close()
}
