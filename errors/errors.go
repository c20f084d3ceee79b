package errors

import "fmt"

var (
	ErrUnauthenticated  = fmt.Errorf("not authenticated")
	ErrNotFound         = fmt.Errorf("not found")
	ErrForbidden        = fmt.Errorf("forbidden")
	ErrNotAMember       = fmt.Errorf("not a member of this conversation")
	ErrEmptyGroupName   = fmt.Errorf("group name is empty")
	ErrNotEnoughMembers = fmt.Errorf("a group needs at least one other member")
	ErrSelfConversation = fmt.Errorf("cannot open a conversation with yourself")
)
