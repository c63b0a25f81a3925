package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType discriminates the closed set of domain events.
type EventType string

const (
	EventAccountRegistered    EventType = "AccountRegistered"
	EventAccountDeleted       EventType = "AccountDeleted"
	EventAccountStatusChanged EventType = "AccountStatusChanged"
	EventEmailUpdated         EventType = "EmailUpdated"
	EventLoginUpdated         EventType = "LoginUpdated"
	EventPasswordUpdated      EventType = "PasswordUpdated"
	EventOAuthBound           EventType = "OAuthBound"
)

// DomainEvent is a fact produced by a use case after a successful state
// change. The set of variants is fixed; publishers handle it exhaustively.
type DomainEvent interface {
	AggregateID() uuid.UUID
	OccurredOn() time.Time
	EventType() EventType
}

type eventBase struct {
	aggregateID uuid.UUID
	occurredOn  time.Time
}

func newEventBase(aggregateID uuid.UUID) eventBase {
	return eventBase{aggregateID: aggregateID, occurredOn: time.Now()}
}

func (e eventBase) AggregateID() uuid.UUID { return e.aggregateID }
func (e eventBase) OccurredOn() time.Time  { return e.occurredOn }

// AccountRegisteredEvent is emitted when a verified account is first persisted.
type AccountRegisteredEvent struct {
	eventBase
	Email        string
	Login        string
	RegisteredAt time.Time
}

// NewAccountRegisteredEvent captures the registration fact from the account.
func NewAccountRegisteredEvent(account *Account) AccountRegisteredEvent {
	return AccountRegisteredEvent{
		eventBase:    newEventBase(account.UUID),
		Email:        account.Email.String(),
		Login:        account.Login.String(),
		RegisteredAt: account.RegisteredAt,
	}
}

func (AccountRegisteredEvent) EventType() EventType { return EventAccountRegistered }

// AccountDeletedEvent is emitted when an account is marked deleted.
type AccountDeletedEvent struct {
	eventBase
	DeletedAt time.Time
}

// NewAccountDeletedEvent captures the deletion fact.
func NewAccountDeletedEvent(accountUUID uuid.UUID, deletedAt time.Time) AccountDeletedEvent {
	return AccountDeletedEvent{eventBase: newEventBase(accountUUID), DeletedAt: deletedAt}
}

func (AccountDeletedEvent) EventType() EventType { return EventAccountDeleted }

// AccountStatusChangedEvent is emitted on suspend/activate transitions.
type AccountStatusChangedEvent struct {
	eventBase
	OldStatus AccountStatus
	NewStatus AccountStatus
}

// NewAccountStatusChangedEvent captures a status transition.
func NewAccountStatusChangedEvent(accountUUID uuid.UUID, oldStatus, newStatus AccountStatus) AccountStatusChangedEvent {
	return AccountStatusChangedEvent{eventBase: newEventBase(accountUUID), OldStatus: oldStatus, NewStatus: newStatus}
}

func (AccountStatusChangedEvent) EventType() EventType { return EventAccountStatusChanged }

// EmailUpdatedEvent is emitted when the account email changes.
type EmailUpdatedEvent struct {
	eventBase
	OldEmail string
	NewEmail string
}

// NewEmailUpdatedEvent captures an email change.
func NewEmailUpdatedEvent(accountUUID uuid.UUID, oldEmail, newEmail string) EmailUpdatedEvent {
	return EmailUpdatedEvent{eventBase: newEventBase(accountUUID), OldEmail: oldEmail, NewEmail: newEmail}
}

func (EmailUpdatedEvent) EventType() EventType { return EventEmailUpdated }

// LoginUpdatedEvent is emitted when the account login changes.
type LoginUpdatedEvent struct {
	eventBase
	OldLogin string
	NewLogin string
}

// NewLoginUpdatedEvent captures a login change.
func NewLoginUpdatedEvent(accountUUID uuid.UUID, oldLogin, newLogin string) LoginUpdatedEvent {
	return LoginUpdatedEvent{eventBase: newEventBase(accountUUID), OldLogin: oldLogin, NewLogin: newLogin}
}

func (LoginUpdatedEvent) EventType() EventType { return EventLoginUpdated }

// PasswordUpdatedEvent is emitted when the password credential is replaced.
type PasswordUpdatedEvent struct {
	eventBase
}

// NewPasswordUpdatedEvent captures a password change.
func NewPasswordUpdatedEvent(accountUUID uuid.UUID) PasswordUpdatedEvent {
	return PasswordUpdatedEvent{eventBase: newEventBase(accountUUID)}
}

func (PasswordUpdatedEvent) EventType() EventType { return EventPasswordUpdated }

// OAuthBoundEvent is emitted when a provider is linked to an account.
type OAuthBoundEvent struct {
	eventBase
	ProviderName string
}

// NewOAuthBoundEvent captures a provider binding.
func NewOAuthBoundEvent(accountUUID uuid.UUID, providerName string) OAuthBoundEvent {
	return OAuthBoundEvent{eventBase: newEventBase(accountUUID), ProviderName: providerName}
}

func (OAuthBoundEvent) EventType() EventType { return EventOAuthBound }
