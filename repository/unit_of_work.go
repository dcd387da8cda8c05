package repository

import (
	"context"
	"errors"
	"fmt"

	"voicecreate/database"
	"voicecreate/events"
	"voicecreate/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	guildID          int64
	transactionalBus *events.TransactionalBus

	trackedChannelRepo   service.TrackedChannelRepository
	categorySettingsRepo service.CategorySettingsRepository
	userSettingsRepo     service.UserSettingsRepository
	guildConfigRepo      service.GuildConfigRepository
	createChannelRepo    service.CreateChannelRepository
	memberRepo           service.MemberRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. Events published
// through a unit of work reach eventBus only after it commits.
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// CreateForGuild creates a unit of work whose repositories only see guildID
func (f *unitOfWorkFactory) CreateForGuild(guildID int64) service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		guildID:          guildID,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create guild-scoped repositories with the transaction
	u.trackedChannelRepo = newTrackedChannelRepositoryWithTx(tx, u.guildID)
	u.categorySettingsRepo = newCategorySettingsRepositoryWithTx(tx, u.guildID)
	u.userSettingsRepo = newUserSettingsRepositoryWithTx(tx, u.guildID)
	u.guildConfigRepo = newGuildConfigRepositoryWithTx(tx, u.guildID)
	u.createChannelRepo = newCreateChannelRepositoryWithTx(tx, u.guildID)
	u.memberRepo = newMemberRepositoryWithTx(tx, u.guildID)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	u.transactionalBus.Flush(u.ctx)

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil
	u.transactionalBus.Discard()

	return nil
}

// TrackedChannelRepository returns the tracked channel repository for this unit of work
func (u *unitOfWork) TrackedChannelRepository() service.TrackedChannelRepository {
	if u.trackedChannelRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.trackedChannelRepo
}

// CategorySettingsRepository returns the category settings repository for this unit of work
func (u *unitOfWork) CategorySettingsRepository() service.CategorySettingsRepository {
	if u.categorySettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.categorySettingsRepo
}

// UserSettingsRepository returns the user settings repository for this unit of work
func (u *unitOfWork) UserSettingsRepository() service.UserSettingsRepository {
	if u.userSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userSettingsRepo
}

// GuildConfigRepository returns the guild config repository for this unit of work
func (u *unitOfWork) GuildConfigRepository() service.GuildConfigRepository {
	if u.guildConfigRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildConfigRepo
}

// CreateChannelRepository returns the create channel repository for this unit of work
func (u *unitOfWork) CreateChannelRepository() service.CreateChannelRepository {
	if u.createChannelRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.createChannelRepo
}

// MemberRepository returns the member repository for this unit of work
func (u *unitOfWork) MemberRepository() service.MemberRepository {
	if u.memberRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.memberRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.tx == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
