package search

import (
	"context"
	"testing"

	"chat-core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Index_And_Search_By_Name(t *testing.T) {
	req := require.New(t)
	index, err := NewUserIndex(t.TempDir())
	req.NoError(err)
	defer index.Close()

	alice := domain.User{ID: uuid.New(), Name: "Alice Martin"}
	bob := domain.User{ID: uuid.New(), Name: "Bob Dupont"}
	req.NoError(index.Index(alice))
	req.NoError(index.Index(bob))

	ids, err := index.Search(context.Background(), "ali")
	req.NoError(err)
	req.Equal([]uuid.UUID{alice.ID}, ids)

	// Case-insensitive, matches inside any token
	ids, err = index.Search(context.Background(), "DUPONT")
	req.NoError(err)
	req.Equal([]uuid.UUID{bob.ID}, ids)

	ids, err = index.Search(context.Background(), "nobody")
	req.NoError(err)
	req.Empty(ids)

	ids, err = index.Search(context.Background(), "   ")
	req.NoError(err)
	req.Empty(ids)
}

func Test_Index_Upsert_Picks_Up_Renames(t *testing.T) {
	req := require.New(t)
	index, err := NewUserIndex(t.TempDir())
	req.NoError(err)
	defer index.Close()

	user := domain.User{ID: uuid.New(), Name: "Alice"}
	req.NoError(index.Index(user))

	user.Name = "Alicia"
	req.NoError(index.Index(user))

	ids, err := index.Search(context.Background(), "alicia")
	req.NoError(err)
	req.Equal([]uuid.UUID{user.ID}, ids)
}
