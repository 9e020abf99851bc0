package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type appointmentRepository struct {
	q querier
}

type medicalRecordRepository struct {
	q querier
}

type transactionRepository struct {
	q querier
}

type catalogRepository struct {
	q querier
}

type notificationRepository struct {
	q querier
}

// Store is the postgres implementation of repository.Store.
type Store struct {
	BaseRepository
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{BaseRepository: NewBaseRepository(db)}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{q: s.db}
}

func (s *Store) MedicalRecords() repository.MedicalRecordRepository {
	return &medicalRecordRepository{q: s.db}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return &transactionRepository{q: s.db}
}

func (s *Store) Catalog() repository.CatalogRepository {
	return &catalogRepository{q: s.db}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{q: s.db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.BaseRepository.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(txRepositories{q: tx})
	})
}

type txRepositories struct {
	q querier
}

func (t txRepositories) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{q: t.q}
}

func (t txRepositories) MedicalRecords() repository.MedicalRecordRepository {
	return &medicalRecordRepository{q: t.q}
}

func (t txRepositories) Transactions() repository.TransactionRepository {
	return &transactionRepository{q: t.q}
}
