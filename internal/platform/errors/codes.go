// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Invitation errors
	CodeInvitationInvalidTarget    Code = "INVITATION_INVALID_TARGET"
	CodeInvitationInvalidRole      Code = "INVITATION_INVALID_ROLE"
	CodeInvitationInvalidValidity  Code = "INVITATION_INVALID_VALIDITY"
	CodeInvitationTokenRequired    Code = "INVITATION_TOKEN_REQUIRED"
	CodeInvitationInviterRequired  Code = "INVITATION_INVITER_REQUIRED"
	CodeInvitationAcceptorConflict Code = "INVITATION_ACCEPTOR_CONFLICT"
	CodeInvitationListScope        Code = "INVITATION_LIST_SCOPE_REQUIRED"
	CodeInvitationInvalidFilter    Code = "INVITATION_INVALID_FILTER"
	CodeInvitationNotPending       Code = "INVITATION_NOT_PENDING"
	CodeInvitationNotFound         Code = "INVITATION_NOT_FOUND"

	// Guest errors
	CodeGuestEmptyName        Code = "GUEST_EMPTY_NAME"
	CodeGuestTokenRequired    Code = "GUEST_TOKEN_REQUIRED"
	CodeGuestEmailRequired    Code = "GUEST_EMAIL_REQUIRED"
	CodeGuestCredentialEmpty  Code = "GUEST_CREDENTIAL_REQUIRED"
	CodeGuestAlreadyConverted Code = "GUEST_ALREADY_CONVERTED"
	CodeGuestEmailInUse       Code = "GUEST_EMAIL_IN_USE"
	CodeGuestNotFound         Code = "GUEST_NOT_FOUND"

	// Directory errors
	CodeDirectoryNameRequired    Code = "DIRECTORY_NAME_REQUIRED"
	CodeDirectoryCreatorRequired Code = "DIRECTORY_CREATOR_REQUIRED"
	CodeUserEmailRequired        Code = "USER_EMAIL_REQUIRED"
	CodeUserEmailInUse           Code = "USER_EMAIL_IN_USE"
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeGroupNotFound            Code = "GROUP_NOT_FOUND"
	CodeEventNotFound            Code = "EVENT_NOT_FOUND"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvitationInvalidTarget,
		CodeInvitationInvalidRole,
		CodeInvitationInvalidValidity,
		CodeInvitationTokenRequired,
		CodeInvitationInviterRequired,
		CodeInvitationAcceptorConflict,
		CodeInvitationListScope,
		CodeInvitationInvalidFilter,
		CodeGuestEmptyName,
		CodeGuestTokenRequired,
		CodeGuestEmailRequired,
		CodeGuestCredentialEmpty,
		CodeDirectoryNameRequired,
		CodeDirectoryCreatorRequired,
		CodeUserEmailRequired:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeInvitationNotPending,
		CodeGuestAlreadyConverted:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeInvitationNotFound,
		CodeGuestNotFound,
		CodeUserNotFound,
		CodeGroupNotFound,
		CodeEventNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeGuestEmailInUse,
		CodeUserEmailInUse:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
